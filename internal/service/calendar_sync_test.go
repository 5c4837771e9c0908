package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sync_service/internal/domain"
	"sync_service/internal/provider"
	"sync_service/internal/provider/calendar"
	"sync_service/internal/provider/course"
	"sync_service/internal/service"
	"sync_service/pkg/logging"
)

func newCalendarEngine(f *fixture) *service.CalendarSyncEngine {
	return service.NewCalendarSyncEngine(f.store, f.courses, f.calendar, f.tokens, f.settings, logging.NewNop())
}

func TestPushAssignments_CreateThenUpdate(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	f.track(t, "101", "MATH 221")
	due := now.Add(72 * time.Hour)
	a := f.seedAssignment(t, "1", "101", due, domain.AssignmentStatusNotStarted)
	// past due assignments are not pushed
	f.seedAssignment(t, "2", "101", now.Add(-time.Hour), domain.AssignmentStatusNotStarted)

	var created calendar.EventInput
	f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ provider.Credentials, _ string, in calendar.EventInput) (*calendar.Event, error) {
			created = in
			return &calendar.Event{ID: "g1"}, nil
		}).Times(1)
	f.calendar.EXPECT().UpdateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, "g1", gomock.Any()).
		Return(&calendar.Event{ID: "g1"}, nil).Times(1)

	engine := newCalendarEngine(f)
	first, err := engine.PushAssignments(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := engine.PushAssignments(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)

	stored, err := f.store.GetAssignment(context.Background(), f.userID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CalendarEventID)
	assert.Equal(t, "g1", *stored.CalendarEventID)

	assert.Equal(t, "MATH 221: Assignment 1", created.Title)
	assert.Equal(t, due, created.Start)
	assert.Equal(t, due.Add(time.Hour), created.End)
	assert.Equal(t, "11", created.ColorID)
	assert.Equal(t, []calendar.Reminder{{Method: "email", Minutes: 1440}, {Method: "popup", Minutes: 60}}, created.Reminders)
}

func TestPushAssignments_RecreatesDeletedEvent(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	f.track(t, "101", "MATH 221")
	a := f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)
	require.NoError(t, f.store.SetAssignmentCalendarEvent(context.Background(), f.userID, a.ID, "gone"))

	f.calendar.EXPECT().UpdateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, "gone", gomock.Any()).
		Return(nil, provider.NewError("google", "update event", 404, "not found"))
	f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
		Return(&calendar.Event{ID: "g2"}, nil)

	res, err := newCalendarEngine(f).PushAssignments(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	stored, err := f.store.GetAssignment(context.Background(), f.userID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "g2", *stored.CalendarEventID)
}

func TestPushAssignments_PerItemFailure(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	f.track(t, "101", "MATH 221")
	f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)
	f.seedAssignment(t, "2", "101", now.Add(2*time.Hour), domain.AssignmentStatusNotStarted)

	gomock.InOrder(
		f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
			Return(nil, provider.NewError("google", "create event", 403, "forbidden")),
		f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
			Return(&calendar.Event{ID: "g2"}, nil),
	)

	res, err := newCalendarEngine(f).PushAssignments(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.FirstError(), "assignment 1")
}

func TestPushAssignments_SkipsUntrackedCourses(t *testing.T) {
	f := setup(t)
	f.settings.PushTasks = true
	f.connectCalendar()
	f.connectCourse()
	f.track(t, "101", "MATH 221")
	f.track(t, "202", "PHYS 101")
	f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)
	kept := f.seedAssignment(t, "2", "202", now.Add(time.Hour), domain.AssignmentStatusNotStarted)
	done := f.seedAssignment(t, "3", "101", now.Add(2*time.Hour), domain.AssignmentStatusCompleted)
	require.NoError(t, f.store.SetAssignmentTask(context.Background(), f.userID, done.ID, "t-done"))

	require.NoError(t, f.svc.UntrackCourse(context.Background(), f.userID, "101"))

	var titles []string
	f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ provider.Credentials, _ string, in calendar.EventInput) (*calendar.Event, error) {
			titles = append(titles, in.Title)
			return &calendar.Event{ID: "g-" + in.Title}, nil
		}).Times(1)
	f.calendar.EXPECT().CreateTask(gomock.Any(), googleCreds, calendar.DefaultTaskList, gomock.Any()).
		Return(&calendar.Task{ID: "t-202"}, nil).Times(1)
	f.courses.EXPECT().GetSelf(gomock.Any(), courseCreds).Return(&course.User{ID: "77"}, nil)
	f.courses.EXPECT().ListCalendarEvents(gomock.Any(), courseCreds, []string{"course_202", "user_77"}, gomock.Any(), gomock.Any()).Return(nil, nil)

	res, err := newCalendarEngine(f).SyncCalendar(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.TasksPushed)
	assert.Zero(t, res.Failed)
	assert.Equal(t, []string{"PHYS 101: Assignment 2"}, titles)

	stored, err := f.store.GetAssignment(context.Background(), f.userID, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "t-202", *stored.CalendarTaskID)
}

func TestPushAssignments_BreakerIsPerUser(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	f.track(t, "101", "MATH 221")
	for i := range 6 {
		f.seedAssignment(t, fmt.Sprintf("a%d", i), "101", now.Add(time.Duration(i+1)*time.Hour), domain.AssignmentStatusNotStarted)
	}

	other := uuid.New()
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), other, domain.ProviderGoogle).Return(googleCreds, nil)
	_, err := f.store.UpsertCourse(context.Background(), domain.TrackedCourse{
		UserID: other, ProviderCourseID: "101", Name: "Calculus", Code: "MATH 221", IsTracked: true,
	})
	require.NoError(t, err)
	due := now.Add(time.Hour)
	_, err = f.store.UpsertAssignment(context.Background(), domain.Assignment{
		UserID: other, ProviderAssignmentID: "b1", CourseID: "101", Title: "Essay", DueAt: &due,
		Status: domain.AssignmentStatusNotStarted,
	})
	require.NoError(t, err)

	throttled := provider.NewError("google", "create event", 429, "slow down")
	f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ provider.Credentials, _ string, in calendar.EventInput) (*calendar.Event, error) {
			if in.Title == "MATH 221: Essay" {
				return &calendar.Event{ID: "g-other"}, nil
			}
			return nil, throttled
		}).AnyTimes()

	engine := newCalendarEngine(f)
	first, err := engine.PushAssignments(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 6, first.Failed)
	assert.Contains(t, first.Errors[5], "circuit breaker is open")

	second, err := engine.PushAssignments(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Created)
	assert.Zero(t, second.Failed)
}

func TestSyncCalendar_PullIsIdempotentAndKeepsLock(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	f.connectCourse()
	f.track(t, "101", "MATH 221")

	start := now.Add(24 * time.Hour)
	events := []course.CalendarEvent{
		{ID: "e1", Title: "Midterm", StartAt: &start, EndAt: ptr(start.Add(2 * time.Hour)), ContextCode: "course_101"},
		{ID: "e2", Title: "Holiday", AllDay: true, AllDayDate: "2025-09-03", ContextCode: "user_77"},
	}
	f.courses.EXPECT().GetSelf(gomock.Any(), courseCreds).Return(&course.User{ID: "77"}, nil).Times(2)
	f.courses.EXPECT().ListCalendarEvents(gomock.Any(), courseCreds, []string{"course_101", "user_77"}, gomock.Any(), gomock.Any()).
		Return(events, nil).Times(2)

	engine := newCalendarEngine(f)
	res, err := engine.SyncCalendar(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pulled)
	assert.Zero(t, res.Failed)

	stored := f.store.Events(f.userID)
	require.Len(t, stored, 2)
	midterm := stored[0]
	assert.Equal(t, domain.EventSourceProviderCourse, midterm.Source)
	assert.Equal(t, "101", *midterm.CourseID)
	require.NoError(t, f.store.SetEventLocked(context.Background(), f.userID, midterm.ID, true))

	holiday := stored[1]
	assert.True(t, holiday.AllDay)
	assert.Equal(t, time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC), holiday.StartTime)
	assert.Equal(t, time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC), holiday.EndTime)

	_, err = engine.SyncCalendar(context.Background(), f.userID)
	require.NoError(t, err)

	stored = f.store.Events(f.userID)
	require.Len(t, stored, 2, "pull must upsert, not duplicate")
	assert.True(t, stored[0].IsLocked)
}

func TestSyncCalendar_RequiresBothTokens(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), f.userID, domain.ProviderCanvas).
		Return(provider.Credentials{}, service.ErrNotConnected)
	f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)

	_, err := newCalendarEngine(f).SyncCalendar(context.Background(), f.userID)
	assert.ErrorIs(t, err, service.ErrNotConnected)
}

func TestSyncCalendar_PushesTasks(t *testing.T) {
	f := setup(t)
	f.settings.PushTasks = true
	f.connectCalendar()
	f.connectCourse()
	f.track(t, "101", "MATH 221")
	open := f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)
	done := f.seedAssignment(t, "2", "101", now.Add(2*time.Hour), domain.AssignmentStatusCompleted)
	require.NoError(t, f.store.SetAssignmentTask(context.Background(), f.userID, done.ID, "t-done"))
	require.NoError(t, f.store.SetAssignmentCalendarEvent(context.Background(), f.userID, open.ID, "g1"))
	require.NoError(t, f.store.SetAssignmentCalendarEvent(context.Background(), f.userID, done.ID, "g2"))

	f.calendar.EXPECT().UpdateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any(), gomock.Any()).
		Return(&calendar.Event{}, nil).Times(2)
	f.calendar.EXPECT().CreateTask(gomock.Any(), googleCreds, calendar.DefaultTaskList, gomock.Any()).
		Return(&calendar.Task{ID: "t-open"}, nil)
	f.calendar.EXPECT().CompleteTask(gomock.Any(), googleCreds, calendar.DefaultTaskList, "t-done").Return(nil)
	f.courses.EXPECT().GetSelf(gomock.Any(), courseCreds).Return(&course.User{ID: "77"}, nil)
	f.courses.EXPECT().ListCalendarEvents(gomock.Any(), courseCreds, []string{"course_101", "user_77"}, gomock.Any(), gomock.Any()).Return(nil, nil)

	res, err := newCalendarEngine(f).SyncCalendar(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 2, res.TasksPushed)

	stored, err := f.store.GetAssignment(context.Background(), f.userID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, "t-open", *stored.CalendarTaskID)
}

func TestPushGeneratedBlocks(t *testing.T) {
	f := setup(t)
	f.connectCalendar()
	study := domain.BlockTypeStudy
	block := f.store.AddEvent(domain.CalendarEvent{
		UserID: f.userID, Title: "Study", StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
		Source: domain.EventSourceSystemGenerated, BlockType: &study,
	})
	f.store.AddEvent(domain.CalendarEvent{
		UserID: f.userID, Title: "Lecture", StartTime: now.Add(3 * time.Hour), EndTime: now.Add(4 * time.Hour),
		Source: domain.EventSourceManual,
	})

	f.calendar.EXPECT().CreateEvent(gomock.Any(), googleCreds, calendar.PrimaryCalendar, gomock.Any()).
		Return(&calendar.Event{ID: "gb1"}, nil)

	res, err := f.svc.PushGeneratedBlocks(context.Background(), f.userID, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	stored, err := f.store.GetEvent(context.Background(), f.userID, block.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalRef)
	assert.Equal(t, domain.ExternalRef{Provider: domain.ProviderGoogle, ExternalID: "gb1"}, *stored.ExternalRef)
}
