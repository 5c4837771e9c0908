package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
	"sync_service/internal/proposal"
	"sync_service/pkg/logging"
)

const (
	defaultGenerateSpan = 14 * 24 * time.Hour
	defaultBlocksSpan   = 365 * 24 * time.Hour
	// assignments due shortly after the range still need study time inside it
	assignmentLookAhead = 7 * 24 * time.Hour
)

type GenerateRequest struct {
	Start                time.Time
	End                  time.Time
	Regenerate           bool
	PrioritizedCourseIDs []string
}

type RejectedBlock struct {
	Block  proposal.Block `json:"block"`
	Reason string         `json:"reason"`
}

type GenerateResult struct {
	Start       time.Time
	End         time.Time
	Pillars     int
	Deleted     int
	StudyBlocks int
	Breaks      int
	Blocks      []domain.CalendarEvent
	Rejected    []RejectedBlock
}

// ScheduleOrchestrator layers generated study blocks around the user's immovable events.
type ScheduleOrchestrator struct {
	repo      repo.Repository
	generator ProposalGenerator
	location  *time.Location
	logger    *logging.Logger
	now       func() time.Time
}

func NewScheduleOrchestrator(r repo.Repository, generator ProposalGenerator, settings Settings, logger *logging.Logger) *ScheduleOrchestrator {
	settings = settings.withDefaults()
	return &ScheduleOrchestrator{
		repo:      r,
		generator: generator,
		location:  settings.Location,
		logger:    logger.Named("schedule"),
		now:       settings.Now,
	}
}

// GenerateSchedule asks the generator for blocks and commits the valid ones. With Regenerate the
// unlocked generated blocks in range are replaced in the same transaction as the insert, so a failed
// proposal leaves the previous schedule intact. Overlapping proposals are rejected, never adjusted.
func (o *ScheduleOrchestrator) GenerateSchedule(ctx context.Context, userID uuid.UUID, req GenerateRequest) (GenerateResult, error) {
	start, end, err := o.resolveRange(req.Start, req.End, defaultGenerateSpan)
	if err != nil {
		return GenerateResult{}, err
	}
	result := GenerateResult{Start: start, End: end}

	events, err := o.repo.ListEventsInRange(ctx, userID, start, end)
	if err != nil {
		return result, fmt.Errorf("failed to list events: %w", err)
	}
	var pillars, survivors []domain.CalendarEvent
	for _, ev := range events {
		switch {
		case ev.IsPillar():
			pillars = append(pillars, ev)
		case !req.Regenerate:
			survivors = append(survivors, ev)
		}
	}
	result.Pillars = len(pillars)
	// kept generated blocks are sent with the pillars so the generator plans around them
	occupied := append(append([]domain.CalendarEvent(nil), pillars...), survivors...)

	dueBefore := end.Add(assignmentLookAhead)
	assignments, err := o.repo.ListAssignments(ctx, domain.AssignmentFilter{
		UserID:    userID,
		Statuses:  []domain.AssignmentStatus{domain.AssignmentStatusNotStarted, domain.AssignmentStatusInProgress},
		DueAfter:  &start,
		DueBefore: &dueBefore,
	})
	if err != nil {
		return result, fmt.Errorf("failed to list assignments: %w", err)
	}

	prefs, err := o.preferences(ctx, userID)
	if err != nil {
		return result, err
	}
	sentiment, err := o.repo.LatestCheckInSentiment(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to read latest check-in: %w", err)
	}

	blocks, err := o.generator.Propose(ctx, buildProposalRequest(start, end, assignments, occupied, prefs, req.PrioritizedCourseIDs, domain.WellnessFromSentiment(sentiment)))
	if err != nil {
		return result, fmt.Errorf("schedule proposal failed: %w", err)
	}

	known := make(map[uuid.UUID]struct{}, len(assignments))
	for _, a := range assignments {
		known[a.ID] = struct{}{}
	}
	accepted, rejected := o.validate(userID, blocks, domain.EventRange{Start: start, End: end}, occupied, known)
	result.Rejected = rejected

	deleted, err := o.repo.ReplaceGeneratedBlocks(ctx, userID, start, end, req.Regenerate, accepted)
	if err != nil {
		return result, fmt.Errorf("failed to store generated blocks: %w", err)
	}
	result.Deleted = deleted
	result.Blocks = accepted
	for _, b := range accepted {
		if b.BlockType != nil && *b.BlockType == domain.BlockTypeBreak {
			result.Breaks++
		} else {
			result.StudyBlocks++
		}
	}

	if len(rejected) > 0 {
		o.logger.Warn(ctx, "generator proposed invalid blocks", zap.Int("rejected", len(rejected)))
	}
	o.logger.Info(ctx, "schedule generated",
		zap.Bool("regenerate", req.Regenerate),
		zap.Int("pillars", result.Pillars),
		zap.Int("deleted", deleted),
		zap.Int("study_blocks", result.StudyBlocks),
		zap.Int("breaks", result.Breaks))
	return result, nil
}

func (o *ScheduleOrchestrator) preferences(ctx context.Context, userID uuid.UUID) (domain.Preferences, error) {
	prefs, err := o.repo.GetPreferences(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.DefaultPreferences(userID), nil
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	return prefs.WithDefaults(), nil
}

func buildProposalRequest(start, end time.Time, assignments []domain.Assignment, pillars []domain.CalendarEvent, prefs domain.Preferences, prioritized []string, wellness domain.Wellness) proposal.Request {
	req := proposal.Request{
		RangeStart:           start,
		RangeEnd:             end,
		Assignments:          make([]proposal.Assignment, 0, len(assignments)),
		Pillars:              make([]proposal.Pillar, 0, len(pillars)),
		PrioritizedCourseIDs: prioritized,
		WellnessState:        string(wellness),
		Preferences: proposal.Preferences{
			StudyBlockMinutes: prefs.StudyBlockMinutes,
			BreakMinutes:      prefs.BreakMinutes,
			TravelMinutes:     prefs.TravelMinutes,
		},
	}
	if req.PrioritizedCourseIDs == nil {
		req.PrioritizedCourseIDs = []string{}
	}
	for _, a := range assignments {
		var points float64
		if a.PointsPossible != nil {
			points = *a.PointsPossible
		}
		req.Assignments = append(req.Assignments, proposal.Assignment{
			ID:             a.ID.String(),
			Title:          a.Title,
			CourseID:       a.CourseID,
			DueAt:          a.DueAt,
			Status:         string(a.Status),
			PointsPossible: points,
		})
	}
	for _, p := range pillars {
		req.Pillars = append(req.Pillars, proposal.Pillar{
			ID:        p.ID.String(),
			Title:     p.Title,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
			Source:    string(p.Source),
			IsLocked:  p.IsLocked,
		})
	}
	return req
}

// validate turns proposals into events. occupied holds pillars and generated blocks that stay.
func (o *ScheduleOrchestrator) validate(userID uuid.UUID, blocks []proposal.Block, window domain.EventRange, occupied []domain.CalendarEvent, known map[uuid.UUID]struct{}) ([]domain.CalendarEvent, []RejectedBlock) {
	var accepted []domain.CalendarEvent
	var rejected []RejectedBlock
	reject := func(b proposal.Block, format string, args ...any) {
		rejected = append(rejected, RejectedBlock{Block: b, Reason: fmt.Sprintf(format, args...)})
	}

	for _, b := range blocks {
		blockType := domain.BlockType(strings.ToUpper(strings.TrimSpace(b.Type)))
		if !blockType.IsValid() {
			reject(b, "unknown block type %q", b.Type)
			continue
		}
		start, err := o.parseTime(b.StartTime)
		if err != nil {
			reject(b, "bad start time: %v", err)
			continue
		}
		end, err := o.parseTime(b.EndTime)
		if err != nil {
			reject(b, "bad end time: %v", err)
			continue
		}
		if !end.After(start) {
			reject(b, "end time is not after start time")
			continue
		}
		if !window.Contains(start, end) {
			reject(b, "outside the requested range")
			continue
		}
		if clash := firstOverlap(occupied, start, end); clash != nil {
			reject(b, "overlaps %q", clash.Title)
			continue
		}
		if clash := firstOverlap(accepted, start, end); clash != nil {
			reject(b, "overlaps proposed block %q", clash.Title)
			continue
		}

		ev := domain.CalendarEvent{
			ID:        uuid.Must(uuid.NewV7()),
			UserID:    userID,
			Title:     strings.TrimSpace(b.Title),
			StartTime: start,
			EndTime:   end,
			Source:    domain.EventSourceSystemGenerated,
			BlockType: &blockType,
		}
		if blockType == domain.BlockTypeBreak {
			ev.Description = "Generated break"
			if ev.Title == "" {
				ev.Title = "Break"
			}
		} else {
			ev.Description = "Generated study block"
			if ev.Title == "" {
				ev.Title = "Study Block"
			}
		}
		if b.CourseID != "" {
			courseID := b.CourseID
			ev.CourseID = &courseID
		}
		if id, err := uuid.Parse(b.AssignmentID); err == nil {
			if _, ok := known[id]; ok {
				ev.AssignmentID = &id
			}
		}
		accepted = append(accepted, ev)
	}
	return accepted, rejected
}

// parseTime accepts RFC 3339 and zone-less timestamps, the latter in the configured location.
func (o *ScheduleOrchestrator) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, o.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a timestamp", s)
	}
	return t, nil
}

func firstOverlap(events []domain.CalendarEvent, start, end time.Time) *domain.CalendarEvent {
	for i := range events {
		if events[i].Overlaps(start, end) {
			return &events[i]
		}
	}
	return nil
}

// SetLocked is idempotent. A locked block is a pillar for every later generation.
func (o *ScheduleOrchestrator) SetLocked(ctx context.Context, userID, eventID uuid.UUID, locked bool) (*domain.CalendarEvent, error) {
	if err := o.repo.SetEventLocked(ctx, userID, eventID, locked); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("failed to update lock: %w", err)
	}
	ev, err := o.repo.GetEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	return ev, nil
}

func (o *ScheduleOrchestrator) ListGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	start, end, err := o.resolveRange(start, end, defaultBlocksSpan)
	if err != nil {
		return nil, err
	}
	events, err := o.repo.ListEventsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	blocks := make([]domain.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.Source == domain.EventSourceSystemGenerated {
			blocks = append(blocks, ev)
		}
	}
	return blocks, nil
}

// ClearGeneratedBlocks deletes unlocked generated blocks; locked ones survive.
func (o *ScheduleOrchestrator) ClearGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	start, end, err := o.resolveRange(start, end, defaultBlocksSpan)
	if err != nil {
		return 0, err
	}
	deleted, err := o.repo.DeleteGeneratedBlocks(ctx, userID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete generated blocks: %w", err)
	}
	return deleted, nil
}

func (o *ScheduleOrchestrator) resolveRange(start, end time.Time, span time.Duration) (time.Time, time.Time, error) {
	if start.IsZero() {
		start = o.now()
	}
	if end.IsZero() {
		end = start.Add(span)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("%w: range end must be after start", ErrInvalidArgument)
	}
	return start, end, nil
}
