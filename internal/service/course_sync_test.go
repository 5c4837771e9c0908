package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sync_service/internal/domain"
	"sync_service/internal/provider"
	"sync_service/internal/provider/course"
	"sync_service/internal/service"
	"sync_service/pkg/logging"
)

func newCourseEngine(f *fixture) *service.CourseSyncEngine {
	return service.NewCourseSyncEngine(f.store, f.courses, f.tokens, f.settings, logging.NewNop())
}

func TestSyncCourses_Idempotent(t *testing.T) {
	f := setup(t)
	f.connectCourse()
	f.track(t, "101", "MATH 221")
	due := now.Add(48 * time.Hour)

	f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, "101").
		Return(&course.Course{ID: "101", Name: "Calculus", CourseCode: "MATH 221"}, nil).Times(2)
	f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
		Return([]course.Assignment{
			providerAssignment("1", "graded", due),
			providerAssignment("2", "unsubmitted", due),
			providerAssignment("3", "", due),
		}, nil).Times(2)

	engine := newCourseEngine(f)
	ctx := context.Background()

	first, err := engine.SyncCourses(ctx, f.userID)
	require.NoError(t, err)
	snapshot := f.store.Assignments(f.userID)

	second, err := engine.SyncCourses(ctx, f.userID)
	require.NoError(t, err)

	assert.Equal(t, 1, first.CoursesSynced)
	assert.Equal(t, 3, first.AssignmentsSynced)
	assert.Equal(t, first, second)

	stored := f.store.Assignments(f.userID)
	require.Len(t, stored, 3, "a second pass must not duplicate")
	for i := range stored {
		assert.Equal(t, snapshot[i].ID, stored[i].ID)
		assert.Equal(t, snapshot[i].Status, stored[i].Status)
	}
	assert.Equal(t, domain.AssignmentStatusCompleted, stored[0].Status)
	assert.NotNil(t, stored[0].CompletedAt)
	assert.Equal(t, domain.AssignmentStatusNotStarted, stored[1].Status)
	assert.Equal(t, domain.AssignmentStatusNotStarted, stored[2].Status)
	assert.Equal(t, "unsubmitted", stored[2].ProviderWorkflowState)

	c, err := f.store.GetCourse(ctx, f.userID, "101")
	require.NoError(t, err)
	assert.Equal(t, "Calculus", c.Name)
	require.NotNil(t, c.LastSyncedAt)
	assert.True(t, c.IsTracked)
}

func TestSyncCourses_PreservesInProgress(t *testing.T) {
	for _, state := range []string{"submitted", "pending_review", "graded", "complete", "unsubmitted", "weird"} {
		t.Run(state, func(t *testing.T) {
			f := setup(t)
			f.connectCourse()
			f.track(t, "101", "MATH 221")
			existing := f.seedAssignment(t, "1", "101", now.Add(time.Hour), domain.AssignmentStatusNotStarted)
			_, err := f.svc.UpdateAssignmentStatus(context.Background(), f.userID, existing.ID, domain.AssignmentStatusInProgress)
			require.NoError(t, err)

			f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, "101").Return(&course.Course{ID: "101"}, nil)
			f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
				Return([]course.Assignment{providerAssignment("1", state, now.Add(time.Hour))}, nil)

			_, err = newCourseEngine(f).SyncCourses(context.Background(), f.userID)
			require.NoError(t, err)

			got, err := f.store.GetAssignment(context.Background(), f.userID, existing.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.AssignmentStatusInProgress, got.Status)
		})
	}
}

func TestSyncCourses_StatusMapping(t *testing.T) {
	tests := []struct {
		state string
		want  domain.AssignmentStatus
	}{
		{"submitted", domain.AssignmentStatusCompleted},
		{"pending_review", domain.AssignmentStatusCompleted},
		{"graded", domain.AssignmentStatusCompleted},
		{"complete", domain.AssignmentStatusCompleted},
		{"unsubmitted", domain.AssignmentStatusNotStarted},
		{"", domain.AssignmentStatusNotStarted},
		{"deleted", domain.AssignmentStatusNotStarted},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			f := setup(t)
			f.connectCourse()
			f.track(t, "101", "MATH 221")
			// a previously completed record follows the provider back to NOT_STARTED
			f.seedAssignment(t, "1", "101", now, domain.AssignmentStatusCompleted)

			f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, "101").Return(&course.Course{ID: "101"}, nil)
			f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
				Return([]course.Assignment{providerAssignment("1", tt.state, now)}, nil)

			_, err := newCourseEngine(f).SyncCourses(context.Background(), f.userID)
			require.NoError(t, err)

			stored := f.store.Assignments(f.userID)
			require.Len(t, stored, 1)
			assert.Equal(t, tt.want, stored[0].Status)
		})
	}
}

func TestSyncCourses_PartialFailure(t *testing.T) {
	f := setup(t)
	f.connectCourse()
	for _, id := range []string{"101", "102", "103"} {
		f.track(t, id, "C"+id)
		f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, id).Return(&course.Course{ID: course.ID(id)}, nil)
	}
	due := now.Add(24 * time.Hour)
	f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
		Return([]course.Assignment{providerAssignment("1", "", due)}, nil)
	f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "102").
		Return(nil, provider.NewError("canvas", "list assignments", 404, "course gone"))
	f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "103").
		Return([]course.Assignment{providerAssignment("2", "", due), providerAssignment("3", "graded", due)}, nil)

	res, err := newCourseEngine(f).SyncCourses(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CoursesSynced)
	assert.Equal(t, 3, res.AssignmentsSynced)
	assert.Equal(t, 1, res.CoursesFailed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "course 102")
}

func TestSyncCourses_CourseWriteFailureIsCounted(t *testing.T) {
	f := setup(t)
	f.connectCourse()
	f.track(t, "101", "MATH 221")
	f.store.Fail = func(op string) error {
		if op == "upsert_course" {
			return errors.New("db down")
		}
		return nil
	}
	f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, "101").Return(&course.Course{ID: "101"}, nil).Times(2)
	f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").Return(nil, nil).Times(2)

	res, err := newCourseEngine(f).SyncCourses(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Zero(t, res.CoursesSynced)
	assert.Equal(t, 1, res.CoursesFailed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "course 101: db down")

	pass, err := f.svc.SyncCourses(context.Background(), f.userID, true)
	require.NoError(t, err)
	assert.False(t, pass.Success)
	assert.Equal(t, domain.SyncStatusError, pass.Status)
}

func TestSyncCourses_RetriesTransientErrors(t *testing.T) {
	f := setup(t)
	f.connectCourse()
	f.track(t, "101", "MATH 221")

	f.courses.EXPECT().GetCourse(gomock.Any(), courseCreds, "101").Return(&course.Course{ID: "101"}, nil)
	gomock.InOrder(
		f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
			Return(nil, provider.NewError("canvas", "list assignments", 503, "busy")),
		f.courses.EXPECT().ListAssignments(gomock.Any(), courseCreds, "101").
			Return([]course.Assignment{providerAssignment("1", "", now)}, nil),
	)

	res, err := newCourseEngine(f).SyncCourses(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AssignmentsSynced)
	assert.Empty(t, res.Errors)
}

func TestSyncCourses_NoTrackedCoursesIsNoop(t *testing.T) {
	f := setup(t)

	res, err := newCourseEngine(f).SyncCourses(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, service.CourseSyncResult{}, res)
}

func TestSyncCourses_NotConnected(t *testing.T) {
	f := setup(t)
	f.track(t, "101", "MATH 221")
	f.tokens.EXPECT().GetValidAccessToken(gomock.Any(), f.userID, domain.ProviderCanvas).
		Return(provider.Credentials{}, service.ErrNotConnected)

	_, err := newCourseEngine(f).SyncCourses(context.Background(), f.userID)
	assert.ErrorIs(t, err, service.ErrNotConnected)
	assert.Empty(t, f.store.Assignments(f.userID))
}
