package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sync_service/internal/domain"
	"sync_service/internal/kafka"
)

// RunAutoSync runs a non-forced course and calendar pass for every user whose auto-sync is due.
// It returns the number of users processed.
func (s *SyncService) RunAutoSync(ctx context.Context) (int, error) {
	due, err := s.repo.ListAutoSyncDue(ctx, s.settings.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list due users: %w", err)
	}

	processed := 0
	for _, state := range due {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		s.autoSyncUser(ctx, state.UserID)
		processed++
	}
	return processed, nil
}

func (s *SyncService) autoSyncUser(ctx context.Context, userID uuid.UUID) {
	log := s.logger.With(zap.String("user_id", userID.String()))

	res, err := s.SyncCourses(ctx, userID, false)
	if errors.Is(err, ErrSyncInProgress) {
		log.Info(ctx, "auto sync skipped, a pass is already running")
		return
	}
	if err != nil {
		log.Error(ctx, "auto course sync failed", zap.Error(err))
		return
	}
	log.Info(ctx, "auto course sync", zap.String("status", string(res.Status)))

	res, err = s.SyncCalendar(ctx, userID, false)
	if err != nil && !errors.Is(err, ErrSyncInProgress) {
		log.Error(ctx, "auto calendar sync failed", zap.Error(err))
		return
	}
	log.Info(ctx, "auto calendar sync", zap.String("status", string(res.Status)))
}

// SendReminders publishes one reminder per open assignment due inside window and marks it reminded.
func (s *SyncService) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	now := s.settings.Now().UTC()
	assignments, err := s.repo.ListAssignmentsDueSoon(ctx, now, window)
	if err != nil {
		return 0, fmt.Errorf("failed to list assignments due soon: %w", err)
	}

	sent := 0
	for _, a := range assignments {
		if a.DueAt == nil || a.Status == domain.AssignmentStatusCompleted {
			continue
		}
		err := s.publisher.SendAssignmentReminder(ctx, kafka.AssignmentReminderEvent{
			UserID:       a.UserID.String(),
			AssignmentID: a.ID.String(),
			CourseID:     a.CourseID,
			Title:        a.Title,
			HTMLURL:      a.HTMLURL,
			DueAt:        *a.DueAt,
			Status:       string(a.Status),
		})
		if err != nil {
			s.logger.Error(ctx, "failed to publish reminder",
				zap.String("assignment_id", a.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.repo.MarkReminded(ctx, a.ID, now); err != nil {
			s.logger.Error(ctx, "failed to mark assignment reminded",
				zap.String("assignment_id", a.ID.String()),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}
