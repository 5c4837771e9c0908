package service

import (
	"time"

	"sync_service/internal/domain"
	"sync_service/internal/provider/calendar"
)

// Settings carries the tunables shared by the engines.
type Settings struct {
	Concurrency int
	MaxAttempts int
	RetryDelay  time.Duration

	CalendarID string
	// Location is used for pushed event time zones and all-day event boundaries.
	Location  *time.Location
	PushTasks bool

	SyncLockTTL          time.Duration
	DefaultIntervalHours int

	Now func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.Concurrency <= 0 {
		s.Concurrency = 4
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 3
	}
	if s.RetryDelay < 0 {
		s.RetryDelay = 0
	}
	if s.CalendarID == "" {
		s.CalendarID = calendar.PrimaryCalendar
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.SyncLockTTL <= 0 {
		s.SyncLockTTL = 10 * time.Minute
	}
	if s.DefaultIntervalHours < domain.MinSyncIntervalHours || s.DefaultIntervalHours > domain.MaxSyncIntervalHours {
		s.DefaultIntervalHours = domain.DefaultSyncIntervalHours
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}
