package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
	"sync_service/internal/provider"
	"sync_service/internal/provider/calendar"
	"sync_service/internal/provider/course"
	"sync_service/pkg/logging"
	"sync_service/pkg/retry"
)

const (
	assignmentEventDuration = time.Hour
	assignmentColorID       = "11"
	maxDescriptionLen       = 500

	pullLookBehind = 7 * 24 * time.Hour
	pullLookAhead  = 120 * 24 * time.Hour
	// completed tasks older than this are not re-completed on every pass
	taskCompleteWindow = 14 * 24 * time.Hour

	breakerThreshold = 5
	breakerReset     = 30 * time.Second
)

var assignmentReminders = []calendar.Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 60},
}

type CalendarSyncResult struct {
	Created     int
	Updated     int
	Pulled      int
	TasksPushed int
	Failed      int
	Errors      []string
}

func (r CalendarSyncResult) Synced() int {
	return r.Created + r.Updated + r.Pulled + r.TasksPushed
}

func (r CalendarSyncResult) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// calendarPass accumulates one pass; it is only touched by the goroutine running the pass.
type calendarPass struct {
	result CalendarSyncResult
	errs   error
}

func (p *calendarPass) fail(err error) {
	p.result.Failed++
	p.errs = multierr.Append(p.errs, err)
}

func (p *calendarPass) finish() CalendarSyncResult {
	p.result.Errors = errorStrings(p.errs)
	return p.result
}

// CalendarSyncEngine pushes assignments to the calendar provider and pulls course calendar events.
type CalendarSyncEngine struct {
	repo       repo.Repository
	courses    CourseProvider
	calendar   CalendarProvider
	tokens     TokenSource
	retry      retry.Policy
	calendarID string
	location   *time.Location
	pushTasks  bool
	logger     *logging.Logger
	now        func() time.Time

	mu       sync.Mutex
	breakers map[uuid.UUID]*retry.CircuitBreaker
}

func NewCalendarSyncEngine(r repo.Repository, courses CourseProvider, cal CalendarProvider, tokens TokenSource, settings Settings, logger *logging.Logger) *CalendarSyncEngine {
	settings = settings.withDefaults()
	return &CalendarSyncEngine{
		repo:       r,
		courses:    courses,
		calendar:   cal,
		tokens:     tokens,
		breakers:   make(map[uuid.UUID]*retry.CircuitBreaker),
		retry:      retryPolicy(settings.MaxAttempts, settings.RetryDelay),
		calendarID: settings.CalendarID,
		location:   settings.Location,
		pushTasks:  settings.PushTasks,
		logger:     logger.Named("calendar_sync"),
		now:        settings.Now,
	}
}

// SyncCalendar pushes then pulls. Both tokens are checked before anything is written.
func (e *CalendarSyncEngine) SyncCalendar(ctx context.Context, userID uuid.UUID) (CalendarSyncResult, error) {
	calCreds, err := e.tokens.GetValidAccessToken(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		return CalendarSyncResult{}, err
	}
	courseCreds, err := e.tokens.GetValidAccessToken(ctx, userID, domain.ProviderCanvas)
	if err != nil {
		return CalendarSyncResult{}, err
	}

	tracked, err := e.repo.ListTrackedCourses(ctx, userID)
	if err != nil {
		return CalendarSyncResult{}, fmt.Errorf("failed to list tracked courses: %w", err)
	}

	pass := &calendarPass{}
	e.pushAssignments(ctx, pass, userID, calCreds, tracked)
	if e.pushTasks {
		e.syncTasks(ctx, pass, userID, calCreds, tracked)
	}
	e.pullCourseEvents(ctx, pass, userID, courseCreds, tracked)

	result := pass.finish()
	e.logger.Info(ctx, "calendar sync finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("pulled", result.Pulled),
		zap.Int("tasks", result.TasksPushed),
		zap.Int("failed", result.Failed))
	return result, nil
}

// PushAssignments runs only the push direction.
func (e *CalendarSyncEngine) PushAssignments(ctx context.Context, userID uuid.UUID) (CalendarSyncResult, error) {
	creds, err := e.tokens.GetValidAccessToken(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		return CalendarSyncResult{}, err
	}
	tracked, err := e.repo.ListTrackedCourses(ctx, userID)
	if err != nil {
		return CalendarSyncResult{}, fmt.Errorf("failed to list tracked courses: %w", err)
	}
	pass := &calendarPass{}
	e.pushAssignments(ctx, pass, userID, creds, tracked)
	return pass.finish(), nil
}

// breaker returns the user's breaker, created on first use. Breakers are never shared between users.
func (e *CalendarSyncEngine) breaker(userID uuid.UUID) *retry.CircuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	cb, ok := e.breakers[userID]
	if !ok {
		cb = retry.NewCircuitBreaker(breakerThreshold, breakerReset, transient)
		e.breakers[userID] = cb
	}
	return cb
}

// call runs one provider write under the retry policy and the user's breaker.
func (e *CalendarSyncEngine) call(ctx context.Context, userID uuid.UUID, fn func() error) error {
	return e.breaker(userID).Execute(func() error {
		return retry.Do(ctx, e.retry, fn)
	})
}

func trackedByID(tracked []domain.TrackedCourse) map[string]domain.TrackedCourse {
	byID := make(map[string]domain.TrackedCourse, len(tracked))
	for _, c := range tracked {
		byID[c.ProviderCourseID] = c
	}
	return byID
}

func (e *CalendarSyncEngine) pushAssignments(ctx context.Context, pass *calendarPass, userID uuid.UUID, creds provider.Credentials, tracked []domain.TrackedCourse) {
	now := e.now()
	assignments, err := e.repo.ListAssignments(ctx, domain.AssignmentFilter{UserID: userID, DueAfter: &now})
	if err != nil {
		pass.fail(fmt.Errorf("list assignments: %w", err))
		return
	}

	byID := trackedByID(tracked)
	for _, a := range assignments {
		c, ok := byID[a.CourseID]
		if !ok || a.DueAt == nil {
			continue
		}
		input := e.assignmentEvent(a, c)
		created, err := e.upsertRemoteEvent(ctx, userID, creds, a.CalendarEventID, input, func(id string) error {
			return e.repo.SetAssignmentCalendarEvent(ctx, userID, a.ID, id)
		})
		if err != nil {
			pass.fail(fmt.Errorf("assignment %s: %w", a.ProviderAssignmentID, err))
			continue
		}
		if created {
			pass.result.Created++
		} else {
			pass.result.Updated++
		}
	}
}

// upsertRemoteEvent updates the mapped event, or creates one and stores its id through save.
// A mapped event deleted remotely is recreated.
func (e *CalendarSyncEngine) upsertRemoteEvent(ctx context.Context, userID uuid.UUID, creds provider.Credentials, mappedID *string, input calendar.EventInput, save func(id string) error) (bool, error) {
	if mappedID != nil && *mappedID != "" {
		err := e.call(ctx, userID, func() error {
			_, err := e.calendar.UpdateEvent(ctx, creds, e.calendarID, *mappedID, input)
			return err
		})
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, provider.ErrNotFound) {
			return false, err
		}
		e.logger.Info(ctx, "mapped calendar event is gone, recreating", zap.String("event_id", *mappedID))
	}

	var created *calendar.Event
	err := e.call(ctx, userID, func() error {
		var err error
		created, err = e.calendar.CreateEvent(ctx, creds, e.calendarID, input)
		return err
	})
	if err != nil {
		return false, err
	}
	if err := save(created.ID); err != nil {
		return false, fmt.Errorf("created event %s but failed to store mapping: %w", created.ID, err)
	}
	return true, nil
}

func (e *CalendarSyncEngine) assignmentEvent(a domain.Assignment, c domain.TrackedCourse) calendar.EventInput {
	code, name := a.CourseID, a.CourseID
	if c.ProviderCourseID != "" {
		code, name = c.DisplayCode(), c.Name
	}

	desc := a.Description
	if r := []rune(desc); len(r) > maxDescriptionLen {
		desc = string(r[:maxDescriptionLen])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Assignment due for %s", name)
	if desc != "" {
		fmt.Fprintf(&b, "\n\n%s", desc)
	}
	if a.HTMLURL != "" {
		fmt.Fprintf(&b, "\n\nView in course: %s", a.HTMLURL)
	}

	due := a.DueAt.In(e.location)
	return calendar.EventInput{
		Title:       fmt.Sprintf("%s: %s", code, a.Title),
		Description: b.String(),
		Start:       due,
		End:         due.Add(assignmentEventDuration),
		TimeZone:    e.location.String(),
		ColorID:     assignmentColorID,
		Reminders:   assignmentReminders,
	}
}

func (e *CalendarSyncEngine) syncTasks(ctx context.Context, pass *calendarPass, userID uuid.UUID, creds provider.Credentials, tracked []domain.TrackedCourse) {
	now := e.now()
	byID := trackedByID(tracked)
	open, err := e.repo.ListAssignments(ctx, domain.AssignmentFilter{
		UserID:   userID,
		Statuses: []domain.AssignmentStatus{domain.AssignmentStatusNotStarted, domain.AssignmentStatusInProgress},
		DueAfter: &now,
	})
	if err != nil {
		pass.fail(fmt.Errorf("list open assignments: %w", err))
		return
	}
	for _, a := range open {
		if _, ok := byID[a.CourseID]; !ok || a.CalendarTaskID != nil {
			continue
		}
		var task *calendar.Task
		err := e.call(ctx, userID, func() error {
			var err error
			task, err = e.calendar.CreateTask(ctx, creds, calendar.DefaultTaskList, calendar.TaskInput{
				Title: a.Title,
				Notes: a.HTMLURL,
				Due:   a.DueAt,
			})
			return err
		})
		if err == nil {
			err = e.repo.SetAssignmentTask(ctx, userID, a.ID, task.ID)
		}
		if err != nil {
			pass.fail(fmt.Errorf("task for assignment %s: %w", a.ProviderAssignmentID, err))
			continue
		}
		pass.result.TasksPushed++
	}

	since := now.Add(-taskCompleteWindow)
	done, err := e.repo.ListAssignments(ctx, domain.AssignmentFilter{
		UserID:   userID,
		Statuses: []domain.AssignmentStatus{domain.AssignmentStatusCompleted},
		DueAfter: &since,
	})
	if err != nil {
		pass.fail(fmt.Errorf("list completed assignments: %w", err))
		return
	}
	for _, a := range done {
		if _, ok := byID[a.CourseID]; !ok || a.CalendarTaskID == nil {
			continue
		}
		err := e.call(ctx, userID, func() error {
			return e.calendar.CompleteTask(ctx, creds, calendar.DefaultTaskList, *a.CalendarTaskID)
		})
		if err != nil && !errors.Is(err, provider.ErrNotFound) {
			pass.fail(fmt.Errorf("complete task for assignment %s: %w", a.ProviderAssignmentID, err))
			continue
		}
		pass.result.TasksPushed++
	}
}

func (e *CalendarSyncEngine) pullCourseEvents(ctx context.Context, pass *calendarPass, userID uuid.UUID, creds provider.Credentials, tracked []domain.TrackedCourse) {
	codes := make([]string, 0, len(tracked)+1)
	for _, c := range tracked {
		codes = append(codes, c.ContextCode())
	}
	self, err := retry.RetryWithBackoff(ctx, e.retry, func() (*course.User, error) {
		return e.courses.GetSelf(ctx, creds)
	})
	if err != nil {
		// course events can still be pulled without the personal context
		pass.fail(fmt.Errorf("resolve personal calendar: %w", err))
	} else {
		codes = append(codes, self.ContextCode())
	}
	if len(codes) == 0 {
		return
	}

	now := e.now()
	events, err := retry.RetryWithBackoff(ctx, e.retry, func() ([]course.CalendarEvent, error) {
		return e.courses.ListCalendarEvents(ctx, creds, codes, now.Add(-pullLookBehind), now.Add(pullLookAhead))
	})
	if err != nil {
		pass.fail(fmt.Errorf("list course calendar events: %w", err))
		return
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	for _, ev := range events {
		local, err := e.localEvent(userID, ev)
		if err == nil {
			_, err = e.repo.UpsertExternalEvent(ctx, local)
		}
		if err != nil {
			pass.fail(fmt.Errorf("calendar event %s: %w", ev.ID, err))
			continue
		}
		pass.result.Pulled++
	}
}

// localEvent maps a course provider event. All-day events span [00:00, 24:00) of their date.
func (e *CalendarSyncEngine) localEvent(userID uuid.UUID, ev course.CalendarEvent) (domain.CalendarEvent, error) {
	var start, end time.Time
	allDay := ev.AllDay && ev.AllDayDate != ""
	switch {
	case allDay:
		day, err := time.ParseInLocation(time.DateOnly, ev.AllDayDate, e.location)
		if err != nil {
			return domain.CalendarEvent{}, fmt.Errorf("bad all day date %q: %w", ev.AllDayDate, err)
		}
		start, end = day, day.AddDate(0, 0, 1)
	case ev.StartAt != nil:
		start = *ev.StartAt
		end = start
		if ev.EndAt != nil && ev.EndAt.After(start) {
			end = *ev.EndAt
		}
	default:
		return domain.CalendarEvent{}, errors.New("event has no start time")
	}

	local := domain.CalendarEvent{
		UserID:      userID,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.LocationName,
		StartTime:   start,
		EndTime:     end,
		AllDay:      allDay,
		Source:      domain.EventSourceProviderCourse,
		ExternalRef: &domain.ExternalRef{Provider: domain.ProviderCanvas, ExternalID: ev.ID.String()},
	}
	if courseID, ok := strings.CutPrefix(ev.ContextCode, "course_"); ok {
		local.CourseID = &courseID
	}
	return local, nil
}

// PushGeneratedBlocks mirrors generated blocks in range to the calendar provider.
func (e *CalendarSyncEngine) PushGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (CalendarSyncResult, error) {
	creds, err := e.tokens.GetValidAccessToken(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		return CalendarSyncResult{}, err
	}
	events, err := e.repo.ListEventsInRange(ctx, userID, start, end)
	if err != nil {
		return CalendarSyncResult{}, fmt.Errorf("failed to list events: %w", err)
	}

	pass := &calendarPass{}
	for _, ev := range events {
		if ev.Source != domain.EventSourceSystemGenerated {
			continue
		}
		var mapped *string
		if ev.ExternalRef != nil && ev.ExternalRef.Provider == domain.ProviderGoogle {
			mapped = &ev.ExternalRef.ExternalID
		}
		input := calendar.EventInput{
			Title:       ev.Title,
			Description: ev.Description,
			Start:       ev.StartTime.In(e.location),
			End:         ev.EndTime.In(e.location),
			TimeZone:    e.location.String(),
		}
		created, err := e.upsertRemoteEvent(ctx, userID, creds, mapped, input, func(id string) error {
			return e.repo.SetEventExternalRef(ctx, userID, ev.ID, domain.ExternalRef{Provider: domain.ProviderGoogle, ExternalID: id})
		})
		if err != nil {
			pass.fail(fmt.Errorf("block %s: %w", ev.ID, err))
			continue
		}
		if created {
			pass.result.Created++
		} else {
			pass.result.Updated++
		}
	}
	return pass.finish(), nil
}
