// Package recurrence turns a weekly class meeting pattern into concrete dated instances.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime    = errors.New("invalid time of day")
	ErrInvalidRange   = errors.New("invalid term range")
	ErrInvalidWeekday = errors.New("invalid weekday")
)

// IsValidationError reports whether err was caused by malformed input rather than an internal failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTime) || errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidWeekday)
}

type Pattern struct {
	DaysOfWeek []time.Weekday
	StartTime  string
	EndTime    string
	TermStart  time.Time
	TermEnd    time.Time
	// Location for wall-clock times. Defaults to UTC.
	Location *time.Location
}

type Instance struct {
	Date  time.Time
	Start time.Time
	End   time.Time
}

// ClockTime is a validated HH:MM time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// ParseClock accepts H:MM or HH:MM in [00:00, 23:59].
func ParseClock(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return ClockTime{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("%w: hour in %q out of range", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: minute in %q out of range", ErrInvalidTime, s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseWeekday accepts English weekday names, full or three-letter, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// Validate checks the pattern without expanding it.
func (p Pattern) Validate() error {
	_, _, err := p.validate()
	return err
}

func (p Pattern) validate() (ClockTime, ClockTime, error) {
	if len(p.DaysOfWeek) == 0 {
		return ClockTime{}, ClockTime{}, fmt.Errorf("%w: at least one weekday is required", ErrInvalidWeekday)
	}
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return ClockTime{}, ClockTime{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
	}
	start, err := ParseClock(p.StartTime)
	if err != nil {
		return ClockTime{}, ClockTime{}, fmt.Errorf("start time: %w", err)
	}
	end, err := ParseClock(p.EndTime)
	if err != nil {
		return ClockTime{}, ClockTime{}, fmt.Errorf("end time: %w", err)
	}
	if end.minutes() <= start.minutes() {
		return ClockTime{}, ClockTime{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidTime, end, start)
	}
	if p.TermStart.IsZero() || p.TermEnd.IsZero() {
		return ClockTime{}, ClockTime{}, fmt.Errorf("%w: term start and end are required", ErrInvalidRange)
	}
	loc := p.location()
	if dateOf(p.TermEnd, loc).Before(dateOf(p.TermStart, loc)) {
		return ClockTime{}, ClockTime{}, fmt.Errorf("%w: term end %s is before term start %s",
			ErrInvalidRange, p.TermEnd.Format(time.DateOnly), p.TermStart.Format(time.DateOnly))
	}
	return start, end, nil
}

func (p Pattern) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

// Expand returns every meeting of the pattern between TermStart and TermEnd, both days inclusive,
// ordered by start time. Identical input always yields identical output.
func Expand(p Pattern) ([]Instance, error) {
	start, end, err := p.validate()
	if err != nil {
		return nil, err
	}

	loc := p.location()
	first := dateOf(p.TermStart, loc)
	last := dateOf(p.TermEnd, loc)

	var instances []Instance
	for _, wd := range uniqueWeekdays(p.DaysOfWeek) {
		offset := (int(wd) - int(first.Weekday()) + 7) % 7
		for day := first.AddDate(0, 0, offset); !day.After(last); day = day.AddDate(0, 0, 7) {
			instances = append(instances, Instance{
				Date:  day,
				Start: at(day, start, loc),
				End:   at(day, end, loc),
			})
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Start.Before(instances[j].Start)
	})
	return instances, nil
}

func uniqueWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func at(day time.Time, c ClockTime, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}
