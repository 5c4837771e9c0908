package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
	"sync_service/internal/provider"
	"sync_service/internal/provider/course"
	"sync_service/pkg/logging"
	"sync_service/pkg/retry"
)

type CourseSyncResult struct {
	CoursesSynced     int
	AssignmentsSynced int
	CoursesFailed     int
	AssignmentsFailed int
	Errors            []string
}

func (r CourseSyncResult) Failed() int {
	return r.CoursesFailed + r.AssignmentsFailed
}

// CourseSyncEngine pulls tracked courses and their assignments into the local store.
type CourseSyncEngine struct {
	repo        repo.Repository
	courses     CourseProvider
	tokens      TokenSource
	retry       retry.Policy
	concurrency int
	logger      *logging.Logger
	now         func() time.Time
}

func NewCourseSyncEngine(r repo.Repository, courses CourseProvider, tokens TokenSource, settings Settings, logger *logging.Logger) *CourseSyncEngine {
	settings = settings.withDefaults()
	return &CourseSyncEngine{
		repo:        r,
		courses:     courses,
		tokens:      tokens,
		retry:       retryPolicy(settings.MaxAttempts, settings.RetryDelay),
		concurrency: settings.Concurrency,
		logger:      logger.Named("course_sync"),
		now:         settings.Now,
	}
}

type courseFetch struct {
	tracked     domain.TrackedCourse
	course      *course.Course
	assignments []course.Assignment
	err         error
}

// SyncCourses never aborts on one course: fetch failures are recorded and the loop moves on.
// An empty tracked set is a successful no-op; a missing token is ErrNotConnected before any write.
func (e *CourseSyncEngine) SyncCourses(ctx context.Context, userID uuid.UUID) (CourseSyncResult, error) {
	var result CourseSyncResult

	tracked, err := e.repo.ListTrackedCourses(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to list tracked courses: %w", err)
	}
	if len(tracked) == 0 {
		return result, nil
	}

	creds, err := e.tokens.GetValidAccessToken(ctx, userID, domain.ProviderCanvas)
	if err != nil {
		return result, err
	}

	fetched := e.fetchAll(ctx, creds, tracked)

	var errs error
	for _, f := range fetched {
		if f.err != nil {
			result.CoursesFailed++
			errs = multierr.Append(errs, fmt.Errorf("course %s: %w", f.tracked.ProviderCourseID, f.err))
			e.logger.Warn(ctx, "course fetch failed",
				zap.String("course_id", f.tracked.ProviderCourseID),
				zap.Error(f.err))
			continue
		}

		w := e.writeCourse(ctx, userID, f)
		result.AssignmentsSynced += w.synced
		result.AssignmentsFailed += w.failed
		errs = multierr.Append(errs, w.courseErr)
		errs = multierr.Append(errs, w.itemErrs)
		if w.courseErr == nil && (w.synced > 0 || w.failed == 0) {
			result.CoursesSynced++
		} else {
			result.CoursesFailed++
		}
	}

	result.Errors = errorStrings(errs)
	e.logger.Info(ctx, "course sync finished",
		zap.Int("courses_synced", result.CoursesSynced),
		zap.Int("assignments_synced", result.AssignmentsSynced),
		zap.Int("failed", result.Failed()))
	return result, nil
}

// fetchAll reads every course in parallel. Results keep the tracked order.
func (e *CourseSyncEngine) fetchAll(ctx context.Context, creds provider.Credentials, tracked []domain.TrackedCourse) []courseFetch {
	out := make([]courseFetch, len(tracked))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, tc := range tracked {
		out[i].tracked = tc
		g.Go(func() error {
			out[i].course, out[i].assignments, out[i].err = e.fetchCourse(gctx, creds, tc.ProviderCourseID)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *CourseSyncEngine) fetchCourse(ctx context.Context, creds provider.Credentials, courseID string) (*course.Course, []course.Assignment, error) {
	c, err := retry.RetryWithBackoff(ctx, e.retry, func() (*course.Course, error) {
		return e.courses.GetCourse(ctx, creds, courseID)
	})
	if err != nil {
		return nil, nil, err
	}
	assignments, err := retry.RetryWithBackoff(ctx, e.retry, func() ([]course.Assignment, error) {
		return e.courses.ListAssignments(ctx, creds, courseID)
	})
	if err != nil {
		return nil, nil, err
	}
	return c, assignments, nil
}

type courseWrite struct {
	synced, failed int
	// courseErr is set when the course row itself was not stored; no assignment was written then.
	courseErr error
	itemErrs  error
}

// writeCourse runs on the caller's goroutine so writes to one user's rows never race.
func (e *CourseSyncEngine) writeCourse(ctx context.Context, userID uuid.UUID, f courseFetch) courseWrite {
	now := e.now().UTC()
	if _, err := e.repo.UpsertCourse(ctx, domain.TrackedCourse{
		UserID:           userID,
		ProviderCourseID: f.tracked.ProviderCourseID,
		Name:             f.course.Name,
		Code:             f.course.CourseCode,
		IsTracked:        true,
		LastSyncedAt:     &now,
	}); err != nil {
		return courseWrite{
			failed:    len(f.assignments),
			courseErr: fmt.Errorf("course %s: %w", f.tracked.ProviderCourseID, err),
		}
	}

	var w courseWrite
	for _, a := range f.assignments {
		if err := e.upsertAssignment(ctx, userID, f.tracked.ProviderCourseID, a, now); err != nil {
			w.failed++
			w.itemErrs = multierr.Append(w.itemErrs, fmt.Errorf("assignment %s: %w", a.ID, err))
			continue
		}
		w.synced++
	}
	return w
}

func (e *CourseSyncEngine) upsertAssignment(ctx context.Context, userID uuid.UUID, courseID string, a course.Assignment, now time.Time) error {
	existing, err := e.repo.GetAssignmentByProviderID(ctx, userID, a.ID.String())
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if errors.Is(err, repo.ErrNotFound) {
		existing = nil
	}

	status := domain.ResolveStatus(existing, domain.ProviderStatus(a.WorkflowState()))

	var completedAt *time.Time
	if status == domain.AssignmentStatusCompleted {
		switch {
		case existing != nil && existing.CompletedAt != nil:
			completedAt = existing.CompletedAt
		case a.Submission != nil && a.Submission.SubmittedAt != nil:
			completedAt = a.Submission.SubmittedAt
		default:
			completedAt = &now
		}
	}

	_, err = e.repo.UpsertAssignment(ctx, domain.Assignment{
		UserID:                userID,
		ProviderAssignmentID:  a.ID.String(),
		CourseID:              courseID,
		Title:                 a.Name,
		Description:           a.Description,
		HTMLURL:               a.HTMLURL,
		DueAt:                 a.DueAt,
		PointsPossible:        a.PointsPossible,
		Status:                status,
		ProviderWorkflowState: a.WorkflowState(),
		SyncedAt:              now,
		CompletedAt:           completedAt,
	})
	return err
}
