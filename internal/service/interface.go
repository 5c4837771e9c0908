package service

//go:generate mockgen -source=interface.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"sync_service/internal/domain"
	"sync_service/internal/kafka"
	"sync_service/internal/proposal"
	"sync_service/internal/provider"
	"sync_service/internal/provider/calendar"
	"sync_service/internal/provider/course"
)

type CourseProvider interface {
	ListCourses(ctx context.Context, creds provider.Credentials) ([]course.Course, error)
	GetCourse(ctx context.Context, creds provider.Credentials, courseID string) (*course.Course, error)
	GetSelf(ctx context.Context, creds provider.Credentials) (*course.User, error)
	ListAssignments(ctx context.Context, creds provider.Credentials, courseID string) ([]course.Assignment, error)
	ListCalendarEvents(ctx context.Context, creds provider.Credentials, contextCodes []string, start, end time.Time) ([]course.CalendarEvent, error)
}

type CalendarProvider interface {
	ListEvents(ctx context.Context, creds provider.Credentials, calendarID string, start, end time.Time) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, creds provider.Credentials, calendarID string, in calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, creds provider.Credentials, calendarID, eventID string, in calendar.EventInput) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, creds provider.Credentials, calendarID, eventID string) error
	ListTaskLists(ctx context.Context, creds provider.Credentials) ([]calendar.TaskList, error)
	CreateTask(ctx context.Context, creds provider.Credentials, taskListID string, in calendar.TaskInput) (*calendar.Task, error)
	CompleteTask(ctx context.Context, creds provider.Credentials, taskListID, taskID string) error
}

type CalendarAuthorizer interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type TokenSource interface {
	GetValidAccessToken(ctx context.Context, userID uuid.UUID, p domain.Provider) (provider.Credentials, error)
	SaveTokens(ctx context.Context, token domain.ProviderToken) error
	RemoveTokens(ctx context.Context, userID uuid.UUID, p domain.Provider) error
}

type ProposalGenerator interface {
	Propose(ctx context.Context, req proposal.Request) ([]proposal.Block, error)
}

type EventPublisher interface {
	SendSyncCompleted(ctx context.Context, event kafka.SyncCompletedEvent) error
	SendAssignmentReminder(ctx context.Context, event kafka.AssignmentReminderEvent) error
}

type StateSigner interface {
	Sign(userID uuid.UUID, provider string) (string, error)
	Verify(state, provider string) (uuid.UUID, error)
}
