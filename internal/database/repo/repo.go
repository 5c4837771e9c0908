package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"sync_service/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

type CourseRepository interface {
	// ListTrackedCourses returns only courses with isTracked = true.
	ListTrackedCourses(ctx context.Context, userID uuid.UUID) ([]domain.TrackedCourse, error)
	GetCourse(ctx context.Context, userID uuid.UUID, providerCourseID string) (*domain.TrackedCourse, error)
	// UpsertCourse inserts by (userId, providerCourseId) or refreshes name, code and lastSyncedAt.
	// isTracked and meeting times of an existing row are left alone.
	UpsertCourse(ctx context.Context, course domain.TrackedCourse) (*domain.TrackedCourse, error)
	SetCourseTracked(ctx context.Context, userID uuid.UUID, providerCourseID string, tracked bool) error
	SetMeetingTimes(ctx context.Context, userID uuid.UUID, providerCourseID string, meetings []domain.MeetingTime) error
}

type AssignmentRepository interface {
	GetAssignment(ctx context.Context, userID, id uuid.UUID) (*domain.Assignment, error)
	GetAssignmentByProviderID(ctx context.Context, userID uuid.UUID, providerAssignmentID string) (*domain.Assignment, error)
	// UpsertAssignment writes by (userId, providerAssignmentId). A stored IN_PROGRESS status is never replaced.
	UpsertAssignment(ctx context.Context, a domain.Assignment) (*domain.Assignment, error)
	ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, userID, id uuid.UUID, status domain.AssignmentStatus, completedAt *time.Time) error
	SetAssignmentCalendarEvent(ctx context.Context, userID, id uuid.UUID, eventID string) error
	SetAssignmentTask(ctx context.Context, userID, id uuid.UUID, taskID string) error
	// ListAssignmentsDueSoon spans all users; it feeds the reminder worker.
	ListAssignmentsDueSoon(ctx context.Context, now time.Time, window time.Duration) ([]domain.Assignment, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}

type EventRepository interface {
	// ListEventsInRange returns events overlapping [start, end) ordered by start time.
	ListEventsInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error)
	GetEvent(ctx context.Context, userID, id uuid.UUID) (*domain.CalendarEvent, error)
	// UpsertExternalEvent writes by (userId, provider, externalId) and keeps a stored isLocked.
	UpsertExternalEvent(ctx context.Context, event domain.CalendarEvent) (*domain.CalendarEvent, error)
	SetEventLocked(ctx context.Context, userID, id uuid.UUID, locked bool) error
	SetEventExternalRef(ctx context.Context, userID, id uuid.UUID, ref domain.ExternalRef) error
	// ReplaceGeneratedBlocks optionally deletes unlocked SYSTEM_GENERATED events in range and inserts
	// blocks, in one transaction. It returns the number of deleted events.
	ReplaceGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time, wipe bool, blocks []domain.CalendarEvent) (int, error)
	DeleteGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)
}

type TokenRepository interface {
	GetToken(ctx context.Context, userID uuid.UUID, provider domain.Provider) (*domain.ProviderToken, error)
	SaveToken(ctx context.Context, token domain.ProviderToken) error
	DeleteToken(ctx context.Context, userID uuid.UUID, provider domain.Provider) error
}

type SyncStateRepository interface {
	GetSyncState(ctx context.Context, userID uuid.UUID) (*domain.SyncState, error)
	SaveSyncState(ctx context.Context, state domain.SyncState) error
	// ListAutoSyncDue returns states with auto-sync on whose last course sync is older than their interval.
	ListAutoSyncDue(ctx context.Context, now time.Time) ([]domain.SyncState, error)
}

// ProfileRepository reads data owned by other parts of the backend.
type ProfileRepository interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.Preferences, error)
	// LatestCheckInSentiment returns "" when the user never checked in.
	LatestCheckInSentiment(ctx context.Context, userID uuid.UUID) (string, error)
}

type Repository interface {
	CourseRepository
	AssignmentRepository
	EventRepository
	TokenRepository
	SyncStateRepository
	ProfileRepository
}
