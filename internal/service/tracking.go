package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
	"sync_service/internal/provider/course"
	"sync_service/internal/recurrence"
	"sync_service/pkg/retry"
)

const availableCoursesTTL = 5 * time.Minute

func availableCoursesKey(userID uuid.UUID) string {
	return "available_courses:" + userID.String()
}

// ListAvailableCourses returns the live course list, cached per user.
func (s *SyncService) ListAvailableCourses(ctx context.Context, userID uuid.UUID) ([]course.Course, error) {
	key := availableCoursesKey(userID)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached []course.Course
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	creds, err := s.tokens.GetValidAccessToken(ctx, userID, domain.ProviderCanvas)
	if err != nil {
		return nil, err
	}
	courses, err := retry.RetryWithBackoff(ctx, retryPolicy(s.settings.MaxAttempts, s.settings.RetryDelay), func() ([]course.Course, error) {
		return s.courses.ListCourses(ctx, creds)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	if data, err := json.Marshal(courses); err == nil {
		s.cache.Set(ctx, key, data, availableCoursesTTL)
	}
	return courses, nil
}

type TrackResult struct {
	Tracked []domain.TrackedCourse
	Unknown []string
}

// TrackCourses opts the user in to the given courses. Ids the provider does not know are reported.
func (s *SyncService) TrackCourses(ctx context.Context, userID uuid.UUID, courseIDs []string) (TrackResult, error) {
	var result TrackResult
	if len(courseIDs) == 0 {
		return result, fmt.Errorf("%w: no course ids", ErrInvalidArgument)
	}

	available, err := s.ListAvailableCourses(ctx, userID)
	if err != nil {
		return result, err
	}
	byID := make(map[string]course.Course, len(available))
	for _, c := range available {
		byID[c.ID.String()] = c
	}

	seen := make(map[string]struct{}, len(courseIDs))
	for _, raw := range courseIDs {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		c, ok := byID[id]
		if !ok {
			result.Unknown = append(result.Unknown, id)
			continue
		}
		if _, err := s.repo.UpsertCourse(ctx, domain.TrackedCourse{
			UserID:           userID,
			ProviderCourseID: id,
			Name:             c.Name,
			Code:             c.CourseCode,
			IsTracked:        true,
		}); err != nil {
			return result, fmt.Errorf("failed to save course %s: %w", id, err)
		}
		// re-activates a previously untracked row
		if err := s.repo.SetCourseTracked(ctx, userID, id, true); err != nil {
			return result, fmt.Errorf("failed to track course %s: %w", id, err)
		}
		tracked, err := s.repo.GetCourse(ctx, userID, id)
		if err != nil {
			return result, fmt.Errorf("failed to read course %s: %w", id, err)
		}
		result.Tracked = append(result.Tracked, *tracked)
	}

	s.logger.Info(ctx, "courses tracked",
		zap.Int("tracked", len(result.Tracked)),
		zap.Strings("unknown", result.Unknown))
	return result, nil
}

// UntrackCourse is a soft flag; assignments and events of the course are kept.
func (s *SyncService) UntrackCourse(ctx context.Context, userID uuid.UUID, courseID string) error {
	err := s.repo.SetCourseTracked(ctx, userID, courseID, false)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	if err != nil {
		return fmt.Errorf("failed to untrack course: %w", err)
	}
	return nil
}

type MeetingResult struct {
	Course    domain.TrackedCourse
	Instances int
	Upserted  int
	Errors    []string
}

// AddMeetingTime stores a weekly class pattern and materializes its instances as MANUAL events.
// Input is validated before anything is written; re-adding the same pattern upserts the same events.
func (s *SyncService) AddMeetingTime(ctx context.Context, userID uuid.UUID, courseID string, meeting domain.MeetingTime) (MeetingResult, error) {
	var result MeetingResult

	instances, err := recurrence.Expand(recurrence.Pattern{
		DaysOfWeek: meeting.DaysOfWeek,
		StartTime:  meeting.StartTime,
		EndTime:    meeting.EndTime,
		TermStart:  meeting.TermStart,
		TermEnd:    meeting.TermEnd,
		Location:   s.settings.Location,
	})
	if err != nil {
		if recurrence.IsValidationError(err) {
			return result, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return result, err
	}

	tracked, err := s.repo.GetCourse(ctx, userID, courseID)
	if errors.Is(err, repo.ErrNotFound) {
		return result, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	if err != nil {
		return result, fmt.Errorf("failed to read course: %w", err)
	}

	if !slices.ContainsFunc(tracked.MeetingTimes, func(m domain.MeetingTime) bool { return sameMeeting(m, meeting) }) {
		tracked.MeetingTimes = append(tracked.MeetingTimes, meeting)
		if err := s.repo.SetMeetingTimes(ctx, userID, courseID, tracked.MeetingTimes); err != nil {
			return result, fmt.Errorf("failed to save meeting times: %w", err)
		}
	}
	result.Course = *tracked
	result.Instances = len(instances)

	var errs error
	title := tracked.DisplayCode()
	for _, inst := range instances {
		cid := courseID
		_, err := s.repo.UpsertExternalEvent(ctx, domain.CalendarEvent{
			UserID:    userID,
			Title:     title,
			Location:  meeting.Location,
			StartTime: inst.Start,
			EndTime:   inst.End,
			Source:    domain.EventSourceManual,
			CourseID:  &cid,
			ExternalRef: &domain.ExternalRef{
				Provider:   domain.ProviderClassSchedule,
				ExternalID: classInstanceID(courseID, inst),
			},
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("class on %s: %w", inst.Date.Format(time.DateOnly), err))
			continue
		}
		result.Upserted++
	}
	result.Errors = errorStrings(errs)

	s.logger.Info(ctx, "meeting time added",
		zap.String("course_id", courseID),
		zap.Int("instances", result.Instances),
		zap.Int("upserted", result.Upserted))
	return result, nil
}

// classInstanceID is stable for a given course, date and start time.
func classInstanceID(courseID string, inst recurrence.Instance) string {
	return fmt.Sprintf("%s:%s:%s", courseID, inst.Date.Format(time.DateOnly), inst.Start.Format("1504"))
}

func sameMeeting(a, b domain.MeetingTime) bool {
	return slices.Equal(a.DaysOfWeek, b.DaysOfWeek) &&
		a.StartTime == b.StartTime &&
		a.EndTime == b.EndTime &&
		a.Location == b.Location &&
		a.TermStart.Equal(b.TermStart) &&
		a.TermEnd.Equal(b.TermEnd)
}

// UpdateAssignmentStatus is the only way into IN_PROGRESS.
func (s *SyncService) UpdateAssignmentStatus(ctx context.Context, userID, assignmentID uuid.UUID, status domain.AssignmentStatus) (*domain.Assignment, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	var completedAt *time.Time
	if status == domain.AssignmentStatusCompleted {
		now := s.settings.Now().UTC()
		completedAt = &now
	}

	err := s.repo.UpdateAssignmentStatus(ctx, userID, assignmentID, status, completedAt)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, assignmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	return s.repo.GetAssignment(ctx, userID, assignmentID)
}

func (s *SyncService) ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, st)
		}
	}
	assignments, err := s.repo.ListAssignments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}
