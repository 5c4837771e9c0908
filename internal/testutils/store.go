// Package testutils provides an in-memory repository with the same upsert rules as the SQL store.
package testutils

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
)

var _ repo.Repository = (*Store)(nil)

type courseKey struct {
	userID   uuid.UUID
	courseID string
}

type assignmentKey struct {
	userID     uuid.UUID
	providerID string
}

type tokenKey struct {
	userID   uuid.UUID
	provider domain.Provider
}

type Store struct {
	mu          sync.Mutex
	courses     map[courseKey]domain.TrackedCourse
	assignments map[uuid.UUID]domain.Assignment
	byProvider  map[assignmentKey]uuid.UUID
	events      map[uuid.UUID]domain.CalendarEvent
	tokens      map[tokenKey]domain.ProviderToken
	states      map[uuid.UUID]domain.SyncState
	preferences map[uuid.UUID]domain.Preferences
	sentiments  map[uuid.UUID]string

	// Fail, when set, is consulted before each write; a non-nil result is returned as the write error.
	Fail func(op string) error
}

func NewStore() *Store {
	return &Store{
		courses:     make(map[courseKey]domain.TrackedCourse),
		assignments: make(map[uuid.UUID]domain.Assignment),
		byProvider:  make(map[assignmentKey]uuid.UUID),
		events:      make(map[uuid.UUID]domain.CalendarEvent),
		tokens:      make(map[tokenKey]domain.ProviderToken),
		states:      make(map[uuid.UUID]domain.SyncState),
		preferences: make(map[uuid.UUID]domain.Preferences),
		sentiments:  make(map[uuid.UUID]string),
	}
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

// Seed helpers.

func (s *Store) AddEvent(e domain.CalendarEvent) domain.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.events[e.ID] = e
	return e
}

func (s *Store) SetPreferences(p domain.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[p.UserID] = p
}

func (s *Store) SetSentiment(userID uuid.UUID, sentiment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiments[userID] = sentiment
}

// Events returns every stored event of the user ordered by start time.
func (s *Store) Events(userID uuid.UUID) []domain.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CalendarEvent
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

// Assignments returns every stored assignment of the user ordered by provider id.
func (s *Store) Assignments(userID uuid.UUID) []domain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderAssignmentID < out[j].ProviderAssignmentID })
	return out
}

// CourseRepository

func (s *Store) ListTrackedCourses(ctx context.Context, userID uuid.UUID) ([]domain.TrackedCourse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TrackedCourse
	for k, c := range s.courses {
		if k.userID == userID && c.IsTracked {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderCourseID < out[j].ProviderCourseID })
	return out, nil
}

func (s *Store) GetCourse(ctx context.Context, userID uuid.UUID, providerCourseID string) (*domain.TrackedCourse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseKey{userID, providerCourseID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpsertCourse(ctx context.Context, course domain.TrackedCourse) (*domain.TrackedCourse, error) {
	if err := s.fail("upsert_course"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := courseKey{course.UserID, course.ProviderCourseID}
	now := time.Now().UTC()
	if existing, ok := s.courses[key]; ok {
		existing.Name = course.Name
		existing.Code = course.Code
		if course.LastSyncedAt != nil {
			existing.LastSyncedAt = course.LastSyncedAt
		}
		existing.UpdatedAt = now
		s.courses[key] = existing
		return &existing, nil
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	course.CreatedAt, course.UpdatedAt = now, now
	s.courses[key] = course
	return &course, nil
}

func (s *Store) SetCourseTracked(ctx context.Context, userID uuid.UUID, providerCourseID string, tracked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := courseKey{userID, providerCourseID}
	c, ok := s.courses[key]
	if !ok {
		return repo.ErrNotFound
	}
	c.IsTracked = tracked
	s.courses[key] = c
	return nil
}

func (s *Store) SetMeetingTimes(ctx context.Context, userID uuid.UUID, providerCourseID string, meetings []domain.MeetingTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := courseKey{userID, providerCourseID}
	c, ok := s.courses[key]
	if !ok {
		return repo.ErrNotFound
	}
	c.MeetingTimes = append([]domain.MeetingTime(nil), meetings...)
	s.courses[key] = c
	return nil
}

// AssignmentRepository

func (s *Store) GetAssignment(ctx context.Context, userID, id uuid.UUID) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetAssignmentByProviderID(ctx context.Context, userID uuid.UUID, providerAssignmentID string) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byProvider[assignmentKey{userID, providerAssignmentID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	a := s.assignments[id]
	return &a, nil
}

func (s *Store) UpsertAssignment(ctx context.Context, a domain.Assignment) (*domain.Assignment, error) {
	if err := s.fail("upsert_assignment"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey{a.UserID, a.ProviderAssignmentID}
	now := time.Now().UTC()
	if a.SyncedAt.IsZero() {
		a.SyncedAt = now
	}
	if id, ok := s.byProvider[key]; ok {
		existing := s.assignments[id]
		existing.CourseID = a.CourseID
		existing.Title = a.Title
		existing.Description = a.Description
		existing.HTMLURL = a.HTMLURL
		existing.DueAt = a.DueAt
		existing.PointsPossible = a.PointsPossible
		existing.ProviderWorkflowState = a.ProviderWorkflowState
		existing.SyncedAt = a.SyncedAt
		existing.UpdatedAt = a.SyncedAt
		if existing.Status != domain.AssignmentStatusInProgress {
			if a.Status == domain.AssignmentStatusCompleted {
				if existing.CompletedAt == nil {
					existing.CompletedAt = a.CompletedAt
				}
			} else {
				existing.CompletedAt = nil
			}
			existing.Status = a.Status
		}
		s.assignments[id] = existing
		return &existing, nil
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt, a.UpdatedAt = a.SyncedAt, a.SyncedAt
	s.assignments[a.ID] = a
	s.byProvider[key] = a.ID
	return &a, nil
}

func (s *Store) ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.UserID != filter.UserID {
			continue
		}
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, a.Status) {
			continue
		}
		if filter.DueAfter != nil && (a.DueAt == nil || a.DueAt.Before(*filter.DueAfter)) {
			continue
		}
		if filter.DueBefore != nil && (a.DueAt == nil || a.DueAt.After(*filter.DueBefore)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].DueAt, out[j].DueAt
		switch {
		case ai == nil && aj == nil:
			return out[i].ProviderAssignmentID < out[j].ProviderAssignmentID
		case ai == nil:
			return false
		case aj == nil:
			return true
		case ai.Equal(*aj):
			return out[i].ProviderAssignmentID < out[j].ProviderAssignmentID
		default:
			return ai.Before(*aj)
		}
	})
	return out, nil
}

func containsStatus(statuses []domain.AssignmentStatus, s domain.AssignmentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s *Store) UpdateAssignmentStatus(ctx context.Context, userID, id uuid.UUID, status domain.AssignmentStatus, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	a.Status = status
	a.CompletedAt = completedAt
	s.assignments[id] = a
	return nil
}

func (s *Store) SetAssignmentCalendarEvent(ctx context.Context, userID, id uuid.UUID, eventID string) error {
	if err := s.fail("set_assignment_calendar_event"); err != nil {
		return err
	}
	return s.updateAssignment(userID, id, func(a *domain.Assignment) { a.CalendarEventID = &eventID })
}

func (s *Store) SetAssignmentTask(ctx context.Context, userID, id uuid.UUID, taskID string) error {
	return s.updateAssignment(userID, id, func(a *domain.Assignment) { a.CalendarTaskID = &taskID })
}

func (s *Store) updateAssignment(userID, id uuid.UUID, fn func(a *domain.Assignment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	fn(&a)
	s.assignments[id] = a
	return nil
}

func (s *Store) ListAssignmentsDueSoon(ctx context.Context, now time.Time, window time.Duration) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := now.Add(window)
	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.DueAt == nil || !a.DueAt.After(now) || a.DueAt.After(limit) {
			continue
		}
		if a.Status == domain.AssignmentStatusCompleted || a.RemindedAt != nil {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(*out[j].DueAt) })
	return out, nil
}

func (s *Store) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.RemindedAt = &at
	s.assignments[id] = a
	return nil
}

// EventRepository

func (s *Store) ListEventsInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CalendarEvent
	for _, e := range s.events {
		if e.UserID == userID && e.Overlaps(start, end) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, userID, id uuid.UUID) (*domain.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return &e, nil
}

func (s *Store) UpsertExternalEvent(ctx context.Context, event domain.CalendarEvent) (*domain.CalendarEvent, error) {
	if err := s.fail("upsert_external_event"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for id, e := range s.events {
		if e.UserID == event.UserID && e.ExternalRef != nil && event.ExternalRef != nil && *e.ExternalRef == *event.ExternalRef {
			e.Title = event.Title
			e.Description = event.Description
			e.Location = event.Location
			e.StartTime = event.StartTime
			e.EndTime = event.EndTime
			e.AllDay = event.AllDay
			e.CourseID = event.CourseID
			e.UpdatedAt = now
			s.events[id] = e
			return &e, nil
		}
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt, event.UpdatedAt = now, now
	s.events[event.ID] = event
	return &event, nil
}

func (s *Store) SetEventLocked(ctx context.Context, userID, id uuid.UUID, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return repo.ErrNotFound
	}
	e.IsLocked = locked
	s.events[id] = e
	return nil
}

func (s *Store) SetEventExternalRef(ctx context.Context, userID, id uuid.UUID, ref domain.ExternalRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return repo.ErrNotFound
	}
	e.ExternalRef = &ref
	s.events[id] = e
	return nil
}

func (s *Store) ReplaceGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time, wipe bool, blocks []domain.CalendarEvent) (int, error) {
	if err := s.fail("replace_generated_blocks"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	if wipe {
		deleted = s.deleteGeneratedLocked(userID, start, end)
	}
	now := time.Now().UTC()
	for _, b := range blocks {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		b.UserID = userID
		b.Source = domain.EventSourceSystemGenerated
		b.IsLocked = false
		b.CreatedAt, b.UpdatedAt = now, now
		s.events[b.ID] = b
	}
	return deleted, nil
}

func (s *Store) DeleteGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteGeneratedLocked(userID, start, end), nil
}

func (s *Store) deleteGeneratedLocked(userID uuid.UUID, start, end time.Time) int {
	deleted := 0
	for id, e := range s.events {
		if e.UserID == userID && e.IsWipeable() && e.Overlaps(start, end) {
			delete(s.events, id)
			deleted++
		}
	}
	return deleted
}

// TokenRepository

func (s *Store) GetToken(ctx context.Context, userID uuid.UUID, provider domain.Provider) (*domain.ProviderToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenKey{userID, provider}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &t, nil
}

func (s *Store) SaveToken(ctx context.Context, token domain.ProviderToken) error {
	if err := s.fail("save_token"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey{token.UserID, token.Provider}] = token
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, userID uuid.UUID, provider domain.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey{userID, provider}
	if _, ok := s.tokens[key]; !ok {
		return repo.ErrNotFound
	}
	delete(s.tokens, key)
	return nil
}

// SyncStateRepository

func (s *Store) GetSyncState(ctx context.Context, userID uuid.UUID) (*domain.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &st, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state domain.SyncState) error {
	if err := s.fail("save_sync_state"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now().UTC()
	s.states[state.UserID] = state
	return nil
}

func (s *Store) ListAutoSyncDue(ctx context.Context, now time.Time) ([]domain.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SyncState
	for _, st := range s.states {
		if st.AutoSyncEnabled && st.Due(domain.SyncKindCourses, now) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

// ProfileRepository

func (s *Store) GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.preferences[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *Store) LatestCheckInSentiment(ctx context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentiments[userID], nil
}

func sortEvents(events []domain.CalendarEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].ID.String() < events[j].ID.String()
		}
		return events[i].StartTime.Before(events[j].StartTime)
	})
}
