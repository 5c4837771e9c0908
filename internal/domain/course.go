package domain

import (
	"time"

	"github.com/google/uuid"
)

type TrackedCourse struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ProviderCourseID string
	Name             string
	Code             string
	IsTracked        bool
	MeetingTimes     []MeetingTime
	LastSyncedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MeetingTime is a weekly class pattern. Times are HH:MM wall-clock strings.
type MeetingTime struct {
	DaysOfWeek []time.Weekday `json:"days_of_week"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Location   string         `json:"location,omitempty"`
	TermStart  time.Time      `json:"term_start"`
	TermEnd    time.Time      `json:"term_end"`
}

// ContextCode is the course provider's calendar context for the course.
func (c TrackedCourse) ContextCode() string {
	return "course_" + c.ProviderCourseID
}

// DisplayCode prefers the short course code and falls back to the name.
func (c TrackedCourse) DisplayCode() string {
	if c.Code != "" {
		return c.Code
	}
	if c.Name != "" {
		return c.Name
	}
	return c.ProviderCourseID
}
