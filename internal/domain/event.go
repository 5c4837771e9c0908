package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExternalRef struct {
	Provider   Provider
	ExternalID string
}

type CalendarEvent struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Description  string
	Location     string
	StartTime    time.Time
	EndTime      time.Time
	AllDay       bool
	Source       EventSource
	IsLocked     bool
	ExternalRef  *ExternalRef
	BlockType    *BlockType
	CourseID     *string
	AssignmentID *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPillar reports whether schedule generation must treat the event as immovable.
func (e CalendarEvent) IsPillar() bool {
	if e.IsLocked {
		return true
	}
	switch e.Source {
	case EventSourceManual, EventSourceProviderCourse:
		return true
	case EventSourceSystemGenerated:
		return false
	default:
		// unknown sources are never wiped
		return true
	}
}

// IsWipeable reports whether a regeneration may delete the event.
func (e CalendarEvent) IsWipeable() bool {
	return e.Source == EventSourceSystemGenerated && !e.IsLocked
}

func (e CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && start.Before(e.EndTime)
}

type EventRange struct {
	Start time.Time
	End   time.Time
}

func (r EventRange) Contains(start, end time.Time) bool {
	return !start.Before(r.Start) && !end.After(r.End)
}
