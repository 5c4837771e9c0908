package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/oauth2"

	"sync_service/internal/domain"
	"sync_service/internal/kafka"
	"sync_service/internal/provider"
	"sync_service/internal/provider/course"
	"sync_service/internal/service"
)

func TestSyncCourses_NothingToDoThenSkipped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.SyncCourses(ctx, f.userID, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)
	assert.Contains(t, res.Message, "nothing to sync")
	assert.Zero(t, res.Counts["failed"])

	state, err := f.svc.GetSyncStatus(ctx, f.userID)
	require.NoError(t, err)
	require.NotNil(t, state.LastCourseSyncAt)
	assert.Equal(t, now, *state.LastCourseSyncAt)

	res, err = f.svc.SyncCourses(ctx, f.userID, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SyncStatusSkipped, res.Status)
	assert.Len(t, f.published, 1, "skipped passes are not published")

	state, err = f.svc.GetSyncStatus(ctx, f.userID)
	require.NoError(t, err)
	require.NotNil(t, state.LastStatus)
	assert.Equal(t, domain.SyncStatusSkipped, *state.LastStatus)

	res, err = f.svc.SyncCourses(ctx, f.userID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)
}

func TestSyncCourses_NotConnectedIsError(t *testing.T) {
	f := setup(t)
	f.track(t, "101", "CS101")
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), f.userID, domain.ProviderCanvas).
		Return(provider.Credentials{}, service.ErrNotConnected)

	res, err := f.svc.SyncCourses(context.Background(), f.userID, true)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.SyncStatusError, res.Status)
	assert.Contains(t, res.Message, "aborted")
	require.Len(t, res.Errors, 1)

	state, err := f.svc.GetSyncStatus(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, state.LastCourseSyncAt)
	require.NotNil(t, state.LastError)
	assert.Equal(t, domain.SyncStatusError, *state.LastStatus)
}

func TestSyncCourses_LockHeld(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	release, ok, err := f.locker.TryLock(ctx, "sync:"+f.userID.String(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := f.svc.SyncCalendar(ctx, f.userID, true)
	assert.ErrorIs(t, err, service.ErrSyncInProgress)
	assert.False(t, res.Success)

	_, err = f.svc.PushGeneratedBlocks(ctx, f.userID, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, service.ErrSyncInProgress)

	require.NoError(t, release(ctx))
	res, err = f.svc.SyncCourses(ctx, f.userID, true)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSyncCourses_PublishesCompletion(t *testing.T) {
	f := setup(t)
	f.connectCourse()
	f.track(t, "101", "CS101")
	f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, "101").
		Return(&course.Course{ID: "101", Name: "Intro", CourseCode: "CS101"}, nil)
	f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
		Return([]course.Assignment{providerAssignment("1", "submitted", now.Add(48*time.Hour))}, nil)

	res, err := f.svc.SyncCourses(context.Background(), f.userID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)
	assert.Equal(t, 1, res.Counts["courses_synced"])
	assert.Equal(t, 1, res.Counts["assignments_synced"])

	require.Len(t, f.published, 1)
	published := f.published[0]
	assert.Equal(t, f.userID.String(), published.UserID)
	assert.Equal(t, "courses", published.Kind)
	assert.Equal(t, "SUCCESS", published.Status)
	assert.Equal(t, now, published.FinishedAt)
}

func TestSetAutoSync(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SetAutoSync(ctx, f.userID, true, 200)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	state, err := f.svc.SetAutoSync(ctx, f.userID, true, 6)
	require.NoError(t, err)
	assert.True(t, state.AutoSyncEnabled)
	assert.Equal(t, 6, state.IntervalHours)

	state, err = f.svc.SetAutoSync(ctx, f.userID, false, 0)
	require.NoError(t, err)
	assert.False(t, state.AutoSyncEnabled)
	assert.Equal(t, 6, state.IntervalHours)

	state, err = f.svc.SetAutoSync(ctx, f.userID, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, state.IntervalHours)
}

func TestRunAutoSync(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := uuid.New()

	_, err := f.svc.SetAutoSync(ctx, f.userID, true, 1)
	require.NoError(t, err)
	_, err = f.svc.SetAutoSync(ctx, other, false, 0)
	require.NoError(t, err)

	// no tracked courses, so only the calendar pass needs tokens
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), f.userID, domain.ProviderGoogle).
		Return(provider.Credentials{}, service.ErrNotConnected)

	n, err := f.svc.RunAutoSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err := f.svc.GetSyncStatus(ctx, f.userID)
	require.NoError(t, err)
	require.NotNil(t, state.LastCourseSyncAt)
	assert.Nil(t, state.LastCalendarSyncAt)

	n, err = f.svc.RunAutoSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "course sync is not due again within the interval")
}

func TestSendReminders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	soon := f.seedAssignment(t, "1", "101", now.Add(6*time.Hour), domain.AssignmentStatusNotStarted)
	f.seedAssignment(t, "2", "101", now.Add(72*time.Hour), domain.AssignmentStatusNotStarted)
	f.seedAssignment(t, "3", "101", now.Add(2*time.Hour), domain.AssignmentStatusCompleted)

	f.publisher.EXPECT().SendAssignmentReminder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev kafka.AssignmentReminderEvent) error {
			assert.Equal(t, soon.ID.String(), ev.AssignmentID)
			assert.Equal(t, "NOT_STARTED", ev.Status)
			return nil
		})

	n, err := f.svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddMeetingTime(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.track(t, "101", "CS101")

	meeting := domain.MeetingTime{
		DaysOfWeek: []time.Weekday{time.Tuesday, time.Thursday},
		StartTime:  "10:00",
		EndTime:    "11:15",
		Location:   "Room 4",
		TermStart:  time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
		TermEnd:    time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("invalid input writes nothing", func(t *testing.T) {
		bad := meeting
		bad.EndTime = "09:00"
		_, err := f.svc.AddMeetingTime(ctx, f.userID, "101", bad)
		assert.ErrorIs(t, err, service.ErrInvalidArgument)
		assert.Empty(t, f.store.Events(f.userID))
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := f.svc.AddMeetingTime(ctx, f.userID, "999", meeting)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("expands and stays idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			res, err := f.svc.AddMeetingTime(ctx, f.userID, "101", meeting)
			require.NoError(t, err)
			assert.Equal(t, 30, res.Instances)
			assert.Equal(t, 30, res.Upserted)
			assert.Empty(t, res.Errors)
			assert.Len(t, res.Course.MeetingTimes, 1)
		}

		events := f.store.Events(f.userID)
		require.Len(t, events, 30)
		first := events[0]
		assert.Equal(t, "CS101", first.Title)
		assert.Equal(t, domain.EventSourceManual, first.Source)
		assert.Equal(t, time.Date(2025, 8, 19, 10, 0, 0, 0, time.UTC), first.StartTime)
		assert.Equal(t, time.Date(2025, 8, 19, 11, 15, 0, 0, time.UTC), first.EndTime)
		require.NotNil(t, first.ExternalRef)
		assert.Equal(t, "101:2025-08-19:1000", first.ExternalRef.ExternalID)
		assert.True(t, first.IsPillar())
	})
}

func TestUpdateAssignmentStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)

	_, err := f.svc.UpdateAssignmentStatus(ctx, f.userID, a.ID, "DONE")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = f.svc.UpdateAssignmentStatus(ctx, f.userID, uuid.New(), domain.AssignmentStatusInProgress)
	assert.ErrorIs(t, err, service.ErrNotFound)

	updated, err := f.svc.UpdateAssignmentStatus(ctx, f.userID, a.ID, domain.AssignmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, now, *updated.CompletedAt)

	_, err = f.svc.ListAssignments(ctx, domain.AssignmentFilter{
		UserID:   f.userID,
		Statuses: []domain.AssignmentStatus{"LATE"},
	})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestTrackCourses(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.connectCourse()
	f.courses.EXPECT().ListCourses(gomock.Any(), courseCreds).Return([]course.Course{
		{ID: "101", Name: "Intro", CourseCode: "CS101"},
		{ID: "102", Name: "Data", CourseCode: "CS102"},
	}, nil).Times(1)

	res, err := f.svc.TrackCourses(ctx, f.userID, []string{"101", "101", "404"})
	require.NoError(t, err)
	require.Len(t, res.Tracked, 1)
	assert.Equal(t, "CS101", res.Tracked[0].Code)
	assert.True(t, res.Tracked[0].IsTracked)
	assert.Equal(t, []string{"404"}, res.Unknown)

	// served from cache
	available, err := f.svc.ListAvailableCourses(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	require.NoError(t, f.svc.UntrackCourse(ctx, f.userID, "101"))
	assert.ErrorIs(t, f.svc.UntrackCourse(ctx, f.userID, "102"), service.ErrNotFound)

	res, err = f.svc.TrackCourses(ctx, f.userID, []string{"101"})
	require.NoError(t, err)
	require.Len(t, res.Tracked, 1)
	assert.True(t, res.Tracked[0].IsTracked)

	_, err = f.svc.TrackCourses(ctx, f.userID, nil)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestConnectCourseProvider(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.svc.ConnectCourseProvider(ctx, f.userID, "canvas.example.edu", "pat")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	f.courses.EXPECT().ListCourses(gomock.Any(), gomock.Any()).
		Return(nil, provider.NewError("canvas", "list courses", 401, "invalid token"))
	err = f.svc.ConnectCourseProvider(ctx, f.userID, "https://canvas.example.edu/", "bad")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	f.courses.EXPECT().ListCourses(gomock.Any(), gomock.Any()).
		Return(nil, provider.NewKindError("canvas", "list courses", 403, "403 Forbidden (Rate Limit Exceeded)", provider.ErrRateLimited))
	err = f.svc.ConnectCourseProvider(ctx, f.userID, "https://canvas.example.edu/", "pat")
	assert.NotErrorIs(t, err, service.ErrInvalidArgument, "throttling says nothing about the token")
	assert.ErrorIs(t, err, provider.ErrRateLimited)

	f.courses.EXPECT().ListCourses(gomock.Any(), courseCreds).Return([]course.Course{}, nil)
	f.tokens.EXPECT().SaveTokens(gomock.Any(), domain.ProviderToken{
		UserID:      f.userID,
		Provider:    domain.ProviderCanvas,
		AccessToken: "pat",
		BaseURL:     "https://canvas.example.edu",
	}).Return(nil)
	require.NoError(t, f.svc.ConnectCourseProvider(ctx, f.userID, "https://canvas.example.edu/", " pat "))
}

func TestCalendarAuthFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	expiry := now.Add(time.Hour)

	f.signer.EXPECT().Sign(f.userID, "google").Return("signed-state", nil)
	f.authorizer.EXPECT().AuthCodeURL("signed-state").Return("https://accounts.example.com/auth?state=signed-state")
	url, err := f.svc.CalendarAuthURL(ctx, f.userID)
	require.NoError(t, err)
	assert.Contains(t, url, "signed-state")

	f.signer.EXPECT().Verify("forged", "google").Return(uuid.Nil, errors.New("bad signature"))
	_, err = f.svc.CompleteCalendarAuth(ctx, "forged", "code")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	f.signer.EXPECT().Verify("signed-state", "google").Return(f.userID, nil)
	f.authorizer.EXPECT().Exchange(gomock.Any(), "code").
		Return(&oauth2.Token{AccessToken: "ya29", RefreshToken: "1//r", Expiry: expiry}, nil)
	f.tokens.EXPECT().SaveTokens(gomock.Any(), domain.ProviderToken{
		UserID:       f.userID,
		Provider:     domain.ProviderGoogle,
		AccessToken:  "ya29",
		RefreshToken: "1//r",
		ExpiresAt:    expiry,
	}).Return(nil)
	userID, err := f.svc.CompleteCalendarAuth(ctx, "signed-state", "code")
	require.NoError(t, err)
	assert.Equal(t, f.userID, userID)

	f.tokens.EXPECT().RemoveTokens(gomock.Any(), f.userID, domain.ProviderGoogle).Return(nil)
	require.NoError(t, f.svc.Disconnect(ctx, f.userID, domain.ProviderGoogle))
	assert.ErrorIs(t, f.svc.Disconnect(ctx, f.userID, domain.ProviderClassSchedule), service.ErrInvalidArgument)
}
