package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sync_service/internal/domain"
)

const syncStateColumns = `user_id, last_course_sync_at, last_calendar_sync_at, auto_sync_enabled, interval_hours,
	last_status, last_error, updated_at`

func scanSyncState(row pgx.Row) (*domain.SyncState, error) {
	var s domain.SyncState
	var status *string
	if err := row.Scan(
		&s.UserID,
		&s.LastCourseSyncAt,
		&s.LastCalendarSyncAt,
		&s.AutoSyncEnabled,
		&s.IntervalHours,
		&status,
		&s.LastError,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if status != nil {
		st := domain.SyncStatus(*status)
		s.LastStatus = &st
	}
	return &s, nil
}

func (r *PostgresRepository) GetSyncState(ctx context.Context, userID uuid.UUID) (*domain.SyncState, error) {
	defer observeDB(ctx, "get_sync_state")()

	s, err := scanSyncState(r.pool.QueryRow(ctx,
		`SELECT `+syncStateColumns+` FROM sync_states WHERE user_id = $1`, userID))
	if err != nil {
		return nil, handleError("get sync state", err)
	}
	return s, nil
}

func (r *PostgresRepository) SaveSyncState(ctx context.Context, state domain.SyncState) error {
	defer observeDB(ctx, "save_sync_state")()

	var status *string
	if state.LastStatus != nil {
		s := string(*state.LastStatus)
		status = &s
	}
	if state.IntervalHours <= 0 {
		state.IntervalHours = domain.DefaultSyncIntervalHours
	}

	query := `
		INSERT INTO sync_states (user_id, last_course_sync_at, last_calendar_sync_at, auto_sync_enabled, interval_hours,
			last_status, last_error, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id) DO UPDATE
		SET last_course_sync_at = EXCLUDED.last_course_sync_at,
		    last_calendar_sync_at = EXCLUDED.last_calendar_sync_at,
		    auto_sync_enabled = EXCLUDED.auto_sync_enabled,
		    interval_hours = EXCLUDED.interval_hours,
		    last_status = EXCLUDED.last_status,
		    last_error = EXCLUDED.last_error,
		    updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query,
		state.UserID,
		state.LastCourseSyncAt,
		state.LastCalendarSyncAt,
		state.AutoSyncEnabled,
		state.IntervalHours,
		status,
		state.LastError,
	); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAutoSyncDue(ctx context.Context, now time.Time) ([]domain.SyncState, error) {
	defer observeDB(ctx, "list_auto_sync_due")()

	query := `SELECT ` + syncStateColumns + `
		FROM sync_states
		WHERE auto_sync_enabled
		  AND (last_course_sync_at IS NULL OR last_course_sync_at + make_interval(hours => interval_hours) <= $1)
		ORDER BY last_course_sync_at ASC NULLS FIRST`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due sync states: %w", err)
	}
	defer rows.Close()

	var states []domain.SyncState
	for rows.Next() {
		s, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync states: %w", err)
	}
	return states, nil
}
