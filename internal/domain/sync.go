package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSyncIntervalHours = 24
	MinSyncIntervalHours     = 1
	MaxSyncIntervalHours     = 168
)

type SyncState struct {
	UserID             uuid.UUID
	LastCourseSyncAt   *time.Time
	LastCalendarSyncAt *time.Time
	AutoSyncEnabled    bool
	IntervalHours      int
	LastStatus         *SyncStatus
	LastError          *string
	UpdatedAt          time.Time
}

func NewSyncState(userID uuid.UUID) SyncState {
	return SyncState{
		UserID:        userID,
		IntervalHours: DefaultSyncIntervalHours,
	}
}

func (s SyncState) Interval() time.Duration {
	hours := s.IntervalHours
	if hours <= 0 {
		hours = DefaultSyncIntervalHours
	}
	return time.Duration(hours) * time.Hour
}

// LastSyncAt returns the last completed sync time for the given kind.
func (s SyncState) LastSyncAt(kind SyncKind) *time.Time {
	if kind == SyncKindCalendar {
		return s.LastCalendarSyncAt
	}
	return s.LastCourseSyncAt
}

// Due reports whether a non-forced sync of kind should run at now.
func (s SyncState) Due(kind SyncKind, now time.Time) bool {
	last := s.LastSyncAt(kind)
	if last == nil {
		return true
	}
	return !now.Before(last.Add(s.Interval()))
}

// SyncResult is the structured outcome every trigger returns.
type SyncResult struct {
	Success bool           `json:"success"`
	Status  SyncStatus     `json:"status"`
	Message string         `json:"message"`
	Counts  map[string]int `json:"counts"`
	Errors  []string       `json:"errors,omitempty"`
}

// StatusFor classifies a pass from its success and failure counts.
func StatusFor(synced, failed int) SyncStatus {
	switch {
	case failed == 0:
		return SyncStatusSuccess
	case synced == 0:
		return SyncStatusError
	default:
		return SyncStatusPartial
	}
}
