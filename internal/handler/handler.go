package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sync_service/internal/domain"
	"sync_service/internal/provider/course"
	"sync_service/internal/service"
)

// Service is the part of service.SyncService the HTTP surface drives.
type Service interface {
	SyncCourses(ctx context.Context, userID uuid.UUID, force bool) (domain.SyncResult, error)
	SyncCalendar(ctx context.Context, userID uuid.UUID, force bool) (domain.SyncResult, error)
	GetSyncStatus(ctx context.Context, userID uuid.UUID) (domain.SyncState, error)
	SetAutoSync(ctx context.Context, userID uuid.UUID, enabled bool, intervalHours int) (domain.SyncState, error)

	GenerateSchedule(ctx context.Context, userID uuid.UUID, req service.GenerateRequest) (service.GenerateResult, error)
	SetBlockLocked(ctx context.Context, userID, eventID uuid.UUID, locked bool) (*domain.CalendarEvent, error)
	ListGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error)
	ClearGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)
	PushGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (service.CalendarSyncResult, error)

	ListAvailableCourses(ctx context.Context, userID uuid.UUID) ([]course.Course, error)
	TrackCourses(ctx context.Context, userID uuid.UUID, courseIDs []string) (service.TrackResult, error)
	UntrackCourse(ctx context.Context, userID uuid.UUID, courseID string) error
	AddMeetingTime(ctx context.Context, userID uuid.UUID, courseID string, meeting domain.MeetingTime) (service.MeetingResult, error)

	ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, userID, assignmentID uuid.UUID, status domain.AssignmentStatus) (*domain.Assignment, error)

	ConnectCourseProvider(ctx context.Context, userID uuid.UUID, baseURL, accessToken string) error
	CalendarAuthURL(ctx context.Context, userID uuid.UUID) (string, error)
	CompleteCalendarAuth(ctx context.Context, state, code string) (uuid.UUID, error)
	Disconnect(ctx context.Context, userID uuid.UUID, p domain.Provider) error
}

var _ Service = (*service.SyncService)(nil)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the API under the given router. The calendar OAuth callback identifies the
// user through the signed state and stays outside authMiddleware.
func (h *Handler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/connections/calendar/callback", h.CalendarCallback)

	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Post("/sync/courses", h.SyncCourses)
		r.Post("/sync/calendar", h.SyncCalendar)
		r.Get("/sync/status", h.GetSyncStatus)
		r.Put("/sync/auto", h.SetAutoSync)

		r.Post("/schedule/generate", h.GenerateSchedule)
		r.Get("/schedule/blocks", h.ListBlocks)
		r.Delete("/schedule/blocks", h.ClearBlocks)
		r.Post("/schedule/blocks/push", h.PushBlocks)
		r.Put("/schedule/blocks/{id}/lock", h.SetBlockLocked)

		r.Get("/courses/available", h.ListAvailableCourses)
		r.Post("/courses/track", h.TrackCourses)
		r.Delete("/courses/{courseId}/track", h.UntrackCourse)
		r.Post("/courses/{courseId}/meetings", h.AddMeetingTime)

		r.Get("/assignments", h.ListAssignments)
		r.Put("/assignments/{id}/status", h.UpdateAssignmentStatus)

		r.Put("/connections/course", h.ConnectCourse)
		r.Get("/connections/calendar/auth-url", h.CalendarAuthURL)
		r.Delete("/connections/{provider}", h.Disconnect)
	})
}
