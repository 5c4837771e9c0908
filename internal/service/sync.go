package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sync_service/internal/cache"
	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
	"sync_service/internal/kafka"
	"sync_service/internal/lock"
	"sync_service/internal/metrics"
	"sync_service/pkg/logging"
)

// Deps are the collaborators of SyncService. All of them are required.
type Deps struct {
	Repo       repo.Repository
	Courses    CourseProvider
	Calendar   CalendarProvider
	Authorizer CalendarAuthorizer
	Tokens     TokenSource
	Generator  ProposalGenerator
	Publisher  EventPublisher
	Signer     StateSigner
	Locker     lock.Locker
	Cache      cache.Cache
}

// SyncService is the operational surface over the engines: sync triggers, tracking and connections.
type SyncService struct {
	repo         repo.Repository
	courses      CourseProvider
	authorizer   CalendarAuthorizer
	tokens       TokenSource
	publisher    EventPublisher
	signer       StateSigner
	locker       lock.Locker
	cache        cache.Cache
	courseSync   *CourseSyncEngine
	calendarSync *CalendarSyncEngine
	schedule     *ScheduleOrchestrator
	settings     Settings
	logger       *logging.Logger
}

func NewSyncService(deps Deps, settings Settings, logger *logging.Logger) *SyncService {
	settings = settings.withDefaults()
	return &SyncService{
		repo:         deps.Repo,
		courses:      deps.Courses,
		authorizer:   deps.Authorizer,
		tokens:       deps.Tokens,
		publisher:    deps.Publisher,
		signer:       deps.Signer,
		locker:       deps.Locker,
		cache:        deps.Cache,
		courseSync:   NewCourseSyncEngine(deps.Repo, deps.Courses, deps.Tokens, settings, logger),
		calendarSync: NewCalendarSyncEngine(deps.Repo, deps.Courses, deps.Calendar, deps.Tokens, settings, logger),
		schedule:     NewScheduleOrchestrator(deps.Repo, deps.Generator, settings, logger),
		settings:     settings,
		logger:       logger.Named("sync"),
	}
}

// passOutcome is what an engine run reports back to runPass.
type passOutcome struct {
	synced  int
	failed  int
	message string
	counts  map[string]int
	errors  []string
}

func (s *SyncService) SyncCourses(ctx context.Context, userID uuid.UUID, force bool) (domain.SyncResult, error) {
	return s.runPass(ctx, userID, domain.SyncKindCourses, force, func(ctx context.Context) (passOutcome, error) {
		res, err := s.courseSync.SyncCourses(ctx, userID)
		if err != nil {
			return passOutcome{}, err
		}
		out := passOutcome{
			synced: res.CoursesSynced,
			failed: res.CoursesFailed + res.AssignmentsFailed,
			counts: map[string]int{
				"courses_synced":     res.CoursesSynced,
				"assignments_synced": res.AssignmentsSynced,
				"failed":             res.Failed(),
			},
			errors: res.Errors,
		}
		switch {
		case res.CoursesSynced == 0 && res.Failed() == 0:
			out.message = "no tracked courses, nothing to sync"
		default:
			out.message = fmt.Sprintf("synced %d courses and %d assignments", res.CoursesSynced, res.AssignmentsSynced)
		}
		return out, nil
	})
}

func (s *SyncService) SyncCalendar(ctx context.Context, userID uuid.UUID, force bool) (domain.SyncResult, error) {
	return s.runPass(ctx, userID, domain.SyncKindCalendar, force, func(ctx context.Context) (passOutcome, error) {
		res, err := s.calendarSync.SyncCalendar(ctx, userID)
		if err != nil {
			return passOutcome{}, err
		}
		return passOutcome{
			synced:  res.Synced(),
			failed:  res.Failed,
			message: fmt.Sprintf("synced %d calendar items, %d failed", res.Synced(), res.Failed),
			counts: map[string]int{
				"synced":  res.Synced(),
				"failed":  res.Failed,
				"created": res.Created,
				"updated": res.Updated,
				"pulled":  res.Pulled,
				"tasks":   res.TasksPushed,
			},
			errors: res.Errors,
		}, nil
	})
}

// runPass holds the per-user lock for the whole pass and records the outcome in SyncState.
func (s *SyncService) runPass(ctx context.Context, userID uuid.UUID, kind domain.SyncKind, force bool, run func(ctx context.Context) (passOutcome, error)) (domain.SyncResult, error) {
	release, ok, err := s.locker.TryLock(ctx, "sync:"+userID.String(), s.settings.SyncLockTTL)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("failed to take sync lock: %w", err)
	}
	if !ok {
		return domain.SyncResult{
			Success: false,
			Message: ErrSyncInProgress.Error(),
		}, ErrSyncInProgress
	}
	// the outcome must be persisted even when the request goes away mid-pass
	persistCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := release(persistCtx); err != nil {
			s.logger.Warn(ctx, "failed to release sync lock", zap.Error(err))
		}
	}()

	state, err := s.loadState(ctx, userID)
	if err != nil {
		return domain.SyncResult{}, err
	}
	now := s.settings.Now().UTC()

	if !force && !state.Due(kind, now) {
		last := state.LastSyncAt(kind)
		status := domain.SyncStatusSkipped
		state.LastStatus = &status
		if err := s.repo.SaveSyncState(persistCtx, state); err != nil {
			return domain.SyncResult{}, fmt.Errorf("failed to save sync state: %w", err)
		}
		metrics.RecordSync(string(kind), string(status))
		return domain.SyncResult{
			Success: true,
			Status:  status,
			Message: fmt.Sprintf("sync not needed yet, last %s sync at %s", kind, last.Format(time.RFC3339)),
			Counts:  map[string]int{},
		}, nil
	}

	out, runErr := run(ctx)

	result := domain.SyncResult{Counts: out.counts, Errors: out.errors}
	if result.Counts == nil {
		result.Counts = map[string]int{}
	}
	if runErr != nil {
		result.Status = domain.SyncStatusError
		result.Message = runErr.Error()
		if errors.Is(runErr, ErrNotConnected) {
			result.Message = fmt.Sprintf("%s sync aborted: %v", kind, runErr)
		}
		result.Errors = []string{runErr.Error()}
	} else {
		result.Status = domain.StatusFor(out.synced, out.failed)
		result.Message = out.message
	}
	result.Success = result.Status != domain.SyncStatusError

	status := result.Status
	state.LastStatus = &status
	state.LastError = nil
	if len(result.Errors) > 0 {
		first := result.Errors[0]
		state.LastError = &first
	}
	if result.Success {
		switch kind {
		case domain.SyncKindCalendar:
			state.LastCalendarSyncAt = &now
		default:
			state.LastCourseSyncAt = &now
		}
	}
	if err := s.repo.SaveSyncState(persistCtx, state); err != nil {
		s.logger.Error(ctx, "failed to save sync state", zap.Error(err))
	}
	metrics.RecordSync(string(kind), string(result.Status))
	s.publishCompleted(persistCtx, userID, kind, result)

	if runErr != nil {
		s.logger.Warn(ctx, "sync pass failed", zap.String("kind", string(kind)), zap.Error(runErr))
	}
	return result, nil
}

func (s *SyncService) publishCompleted(ctx context.Context, userID uuid.UUID, kind domain.SyncKind, result domain.SyncResult) {
	err := s.publisher.SendSyncCompleted(ctx, kafka.SyncCompletedEvent{
		UserID:     userID.String(),
		Kind:       string(kind),
		Status:     string(result.Status),
		Message:    result.Message,
		Counts:     result.Counts,
		Errors:     result.Errors,
		FinishedAt: s.settings.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn(ctx, "failed to publish sync event", zap.Error(err))
	}
}

func (s *SyncService) loadState(ctx context.Context, userID uuid.UUID) (domain.SyncState, error) {
	state, err := s.repo.GetSyncState(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		st := domain.NewSyncState(userID)
		st.IntervalHours = s.settings.DefaultIntervalHours
		return st, nil
	}
	if err != nil {
		return domain.SyncState{}, fmt.Errorf("failed to load sync state: %w", err)
	}
	return *state, nil
}

func (s *SyncService) GetSyncStatus(ctx context.Context, userID uuid.UUID) (domain.SyncState, error) {
	return s.loadState(ctx, userID)
}

// SetAutoSync stores the auto-sync intent. Disabling keeps the stored interval;
// an interval of 0 keeps the current one.
func (s *SyncService) SetAutoSync(ctx context.Context, userID uuid.UUID, enabled bool, intervalHours int) (domain.SyncState, error) {
	if enabled && intervalHours != 0 &&
		(intervalHours < domain.MinSyncIntervalHours || intervalHours > domain.MaxSyncIntervalHours) {
		return domain.SyncState{}, fmt.Errorf("%w: interval must be within %d..%d hours",
			ErrInvalidArgument, domain.MinSyncIntervalHours, domain.MaxSyncIntervalHours)
	}

	state, err := s.loadState(ctx, userID)
	if err != nil {
		return domain.SyncState{}, err
	}
	state.AutoSyncEnabled = enabled
	if enabled && intervalHours != 0 {
		state.IntervalHours = intervalHours
	}
	if err := s.repo.SaveSyncState(ctx, state); err != nil {
		return domain.SyncState{}, fmt.Errorf("failed to save sync state: %w", err)
	}
	s.logger.Info(ctx, "auto sync updated",
		zap.Bool("enabled", enabled),
		zap.Int("interval_hours", state.IntervalHours))
	return state, nil
}

func (s *SyncService) GenerateSchedule(ctx context.Context, userID uuid.UUID, req GenerateRequest) (GenerateResult, error) {
	return s.schedule.GenerateSchedule(ctx, userID, req)
}

func (s *SyncService) SetBlockLocked(ctx context.Context, userID, eventID uuid.UUID, locked bool) (*domain.CalendarEvent, error) {
	return s.schedule.SetLocked(ctx, userID, eventID, locked)
}

func (s *SyncService) ListGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	return s.schedule.ListGeneratedBlocks(ctx, userID, start, end)
}

func (s *SyncService) ClearGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	return s.schedule.ClearGeneratedBlocks(ctx, userID, start, end)
}

// PushGeneratedBlocks mirrors generated blocks to the calendar provider; it shares the sync lock.
func (s *SyncService) PushGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (CalendarSyncResult, error) {
	if start.IsZero() {
		start = s.settings.Now()
	}
	if end.IsZero() {
		end = start.Add(defaultGenerateSpan)
	}
	if !end.After(start) {
		return CalendarSyncResult{}, fmt.Errorf("%w: range end must be after start", ErrInvalidArgument)
	}
	release, ok, err := s.locker.TryLock(ctx, "sync:"+userID.String(), s.settings.SyncLockTTL)
	if err != nil {
		return CalendarSyncResult{}, fmt.Errorf("failed to take sync lock: %w", err)
	}
	if !ok {
		return CalendarSyncResult{}, ErrSyncInProgress
	}
	defer func() { _ = release(context.WithoutCancel(ctx)) }()

	return s.calendarSync.PushGeneratedBlocks(ctx, userID, start, end)
}
