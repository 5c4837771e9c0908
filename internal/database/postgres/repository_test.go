package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sync_service/internal/domain"
)

var (
	assignmentCols = []string{"id", "user_id", "provider_assignment_id", "course_id", "title", "description",
		"html_url", "due_at", "points_possible", "status", "provider_workflow_state", "synced_at",
		"calendar_event_id", "calendar_task_id", "completed_at", "reminded_at", "created_at", "updated_at"}
	eventCols = []string{"id", "user_id", "title", "description", "location", "start_time", "end_time", "all_day",
		"source", "is_locked", "external_provider", "external_id", "block_type", "course_id", "assignment_id",
		"created_at", "updated_at"}
)

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewWithPool(mockPool), mockPool
}

func TestPostgresRepo_UpsertAssignment_KeepsInProgress(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	id := uuid.New()
	userID := uuid.New()

	mockPool.ExpectQuery(`ON CONFLICT \(user_id, provider_assignment_id\) DO UPDATE[\s\S]*` +
		`status = CASE WHEN assignments\.status = 'IN_PROGRESS' THEN assignments\.status ELSE EXCLUDED\.status END`).
		WithArgs(id, userID, "7", "101", "HW 7", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), "NOT_STARTED", "unsubmitted", now, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(assignmentCols).
			AddRow(id, userID, "7", "101", "HW 7", "", "", &due, nil, "IN_PROGRESS", "unsubmitted", now,
				nil, nil, nil, nil, now, now))

	saved, err := repo.UpsertAssignment(ctx, domain.Assignment{
		ID:                    id,
		UserID:                userID,
		ProviderAssignmentID:  "7",
		CourseID:              "101",
		Title:                 "HW 7",
		DueAt:                 &due,
		Status:                domain.AssignmentStatusNotStarted,
		ProviderWorkflowState: "unsubmitted",
		SyncedAt:              now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusInProgress, saved.Status)
	assert.Equal(t, due, *saved.DueAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepo_UpsertExternalEvent_KeepsLock(t *testing.T) {
	onConflict := strings.SplitN(upsertExternalEventQuery, "DO UPDATE", 2)
	require.Len(t, onConflict, 2)
	assert.NotContains(t, onConflict[1], "is_locked =")
	assert.NotContains(t, onConflict[1], "source =")

	repo, mockPool := newMockRepo(t)
	ctx := context.Background()
	start := time.Date(2025, 9, 15, 14, 0, 0, 0, time.UTC)
	userID := uuid.New()
	existingID := uuid.New()
	courseID := "101"
	provider, extID := "canvas", "e1"

	mockPool.ExpectQuery(`INSERT INTO calendar_events[\s\S]*ON CONFLICT \(user_id, external_provider, external_id\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), userID, "Midterm", "", "", start, start.Add(2*time.Hour), false,
			"PROVIDER_COURSE", false, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(eventCols).
			AddRow(existingID, userID, "Midterm", "", "", start, start.Add(2*time.Hour), false,
				"PROVIDER_COURSE", true, &provider, &extID, nil, &courseID, nil, start, start))

	saved, err := repo.UpsertExternalEvent(ctx, domain.CalendarEvent{
		UserID:      userID,
		Title:       "Midterm",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Source:      domain.EventSourceProviderCourse,
		ExternalRef: &domain.ExternalRef{Provider: domain.ProviderCanvas, ExternalID: "e1"},
		CourseID:    &courseID,
	})
	require.NoError(t, err)
	assert.Equal(t, existingID, saved.ID)
	assert.True(t, saved.IsLocked)
	require.NotNil(t, saved.ExternalRef)
	assert.Equal(t, domain.ExternalRef{Provider: domain.ProviderCanvas, ExternalID: "e1"}, *saved.ExternalRef)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepo_ReplaceGeneratedBlocks(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	study, rest := domain.BlockTypeStudy, domain.BlockTypeBreak
	blocks := []domain.CalendarEvent{
		{ID: uuid.New(), Title: "Study", StartTime: start.Add(9 * time.Hour), EndTime: start.Add(10 * time.Hour), BlockType: &study},
		{ID: uuid.New(), Title: "Break", StartTime: start.Add(10 * time.Hour), EndTime: start.Add(10*time.Hour + 15*time.Minute), BlockType: &rest},
	}
	wipeQuery := `DELETE FROM calendar_events\s+WHERE user_id = \$1\s+AND source = 'SYSTEM_GENERATED'\s+AND is_locked = false`

	t.Run("wipe and insert in one transaction", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		userID := uuid.New()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(wipeQuery).
			WithArgs(userID, start, end).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		for _, b := range blocks {
			mockPool.ExpectExec(`INSERT INTO calendar_events`).
				WithArgs(b.ID, userID, b.Title, pgxmock.AnyArg(), b.StartTime, b.EndTime, "SYSTEM_GENERATED",
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mockPool.ExpectCommit()

		deleted, err := repo.ReplaceGeneratedBlocks(context.Background(), userID, start, end, true, blocks)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("without regenerate nothing is deleted", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		userID := uuid.New()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`INSERT INTO calendar_events`).
			WithArgs(blocks[0].ID, userID, "Study", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "SYSTEM_GENERATED",
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		deleted, err := repo.ReplaceGeneratedBlocks(context.Background(), userID, start, end, false, blocks[:1])
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("failed insert rolls the wipe back", func(t *testing.T) {
		repo, mockPool := newMockRepo(t)
		userID := uuid.New()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(wipeQuery).
			WithArgs(userID, start, end).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		mockPool.ExpectExec(`INSERT INTO calendar_events`).
			WithArgs(blocks[0].ID, userID, "Study", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "SYSTEM_GENERATED",
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))
		mockPool.ExpectRollback()

		_, err := repo.ReplaceGeneratedBlocks(context.Background(), userID, start, end, true, blocks)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
