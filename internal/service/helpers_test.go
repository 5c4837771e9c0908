package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sync_service/internal/cache"
	"sync_service/internal/domain"
	"sync_service/internal/kafka"
	"sync_service/internal/lock"
	"sync_service/internal/provider"
	"sync_service/internal/provider/course"
	"sync_service/internal/service"
	"sync_service/internal/service/mocks"
	"sync_service/internal/testutils"
	"sync_service/pkg/logging"
)

var (
	now         = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	courseCreds = provider.Credentials{AccessToken: "pat", BaseURL: "https://canvas.example.edu"}
	googleCreds = provider.Credentials{AccessToken: "ya29"}
)

type fixture struct {
	userID     uuid.UUID
	store      *testutils.Store
	locker     *lock.LocalLocker
	courses    *mocks.MockCourseProvider
	calendar   *mocks.MockCalendarProvider
	authorizer *mocks.MockCalendarAuthorizer
	tokens     *mocks.MockTokenSource
	generator  *mocks.MockProposalGenerator
	publisher  *mocks.MockEventPublisher
	signer     *mocks.MockStateSigner
	settings   service.Settings
	svc        *service.SyncService
	published  []kafka.SyncCompletedEvent
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		userID:     uuid.New(),
		store:      testutils.NewStore(),
		locker:     lock.NewLocalLocker(),
		courses:    mocks.NewMockCourseProvider(ctrl),
		calendar:   mocks.NewMockCalendarProvider(ctrl),
		authorizer: mocks.NewMockCalendarAuthorizer(ctrl),
		tokens:     mocks.NewMockTokenSource(ctrl),
		generator:  mocks.NewMockProposalGenerator(ctrl),
		publisher:  mocks.NewMockEventPublisher(ctrl),
		signer:     mocks.NewMockStateSigner(ctrl),
		settings: service.Settings{
			Concurrency: 2,
			MaxAttempts: 2,
			Location:    time.UTC,
			Now:         func() time.Time { return now },
		},
	}
	f.publisher.EXPECT().SendSyncCompleted(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev kafka.SyncCompletedEvent) error {
			f.published = append(f.published, ev)
			return nil
		}).AnyTimes()
	f.svc = service.NewSyncService(service.Deps{
		Repo:       f.store,
		Courses:    f.courses,
		Calendar:   f.calendar,
		Authorizer: f.authorizer,
		Tokens:     f.tokens,
		Generator:  f.generator,
		Publisher:  f.publisher,
		Signer:     f.signer,
		Locker:     f.locker,
		Cache:      cache.NewMemoryCache(),
	}, f.settings, logging.NewNop())
	return f
}

func (f *fixture) connectCourse() {
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), f.userID, domain.ProviderCanvas).Return(courseCreds, nil).AnyTimes()
}

func (f *fixture) connectCalendar() {
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), f.userID, domain.ProviderGoogle).Return(googleCreds, nil).AnyTimes()
}

func (f *fixture) track(t *testing.T, courseID, code string) {
	t.Helper()
	_, err := f.store.UpsertCourse(context.Background(), domain.TrackedCourse{
		UserID:           f.userID,
		ProviderCourseID: courseID,
		Name:             code + " course",
		Code:             code,
		IsTracked:        true,
	})
	require.NoError(t, err)
}

func (f *fixture) seedAssignment(t *testing.T, providerID, courseID string, due time.Time, status domain.AssignmentStatus) domain.Assignment {
	t.Helper()
	a, err := f.store.UpsertAssignment(context.Background(), domain.Assignment{
		UserID:               f.userID,
		ProviderAssignmentID: providerID,
		CourseID:             courseID,
		Title:                "Assignment " + providerID,
		DueAt:                &due,
		Status:               status,
	})
	require.NoError(t, err)
	return *a
}

func providerAssignment(id, state string, due time.Time) course.Assignment {
	a := course.Assignment{ID: course.ID(id), Name: "HW " + id, DueAt: &due}
	if state != "" {
		a.Submission = &course.Submission{WorkflowState: state}
	}
	return a
}

func ptr[T any](v T) *T {
	return &v
}
