package domain

import (
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	ProviderAssignmentID  string
	CourseID              string
	Title                 string
	Description           string
	HTMLURL               string
	DueAt                 *time.Time
	PointsPossible        *float64
	Status                AssignmentStatus
	ProviderWorkflowState string
	SyncedAt              time.Time
	CalendarEventID       *string
	CalendarTaskID        *string
	CompletedAt           *time.Time
	RemindedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type AssignmentFilter struct {
	UserID    uuid.UUID
	CourseID  string
	Statuses  []AssignmentStatus
	DueAfter  *time.Time
	DueBefore *time.Time
}

var completedWorkflowStates = map[string]struct{}{
	"submitted":      {},
	"pending_review": {},
	"graded":         {},
	"complete":       {},
}

// ProviderStatus derives the status the course provider implies for a submission state.
// It never yields IN_PROGRESS.
func ProviderStatus(workflowState string) AssignmentStatus {
	if _, ok := completedWorkflowStates[workflowState]; ok {
		return AssignmentStatusCompleted
	}
	return AssignmentStatusNotStarted
}

// ResolveStatus decides what a sync pass writes. IN_PROGRESS is user intent and always wins.
func ResolveStatus(existing *Assignment, providerStatus AssignmentStatus) AssignmentStatus {
	if existing != nil && existing.Status == AssignmentStatusInProgress {
		return AssignmentStatusInProgress
	}
	return providerStatus
}
