package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
)

const eventColumns = `id, user_id, title, description, location, start_time, end_time, all_day, source, is_locked,
	external_provider, external_id, block_type, course_id, assignment_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.CalendarEvent, error) {
	var e domain.CalendarEvent
	var source string
	var extProvider, extID, blockType *string
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.StartTime,
		&e.EndTime,
		&e.AllDay,
		&source,
		&e.IsLocked,
		&extProvider,
		&extID,
		&blockType,
		&e.CourseID,
		&e.AssignmentID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Source = domain.EventSource(source)
	if extProvider != nil && extID != nil {
		e.ExternalRef = &domain.ExternalRef{Provider: domain.Provider(*extProvider), ExternalID: *extID}
	}
	if blockType != nil {
		bt := domain.BlockType(*blockType)
		e.BlockType = &bt
	}
	return &e, nil
}

func externalColumns(ref *domain.ExternalRef) (*string, *string) {
	if ref == nil {
		return nil, nil
	}
	provider := string(ref.Provider)
	id := ref.ExternalID
	return &provider, &id
}

func blockTypeColumn(bt *domain.BlockType) *string {
	if bt == nil {
		return nil
	}
	s := string(*bt)
	return &s
}

func (r *PostgresRepository) ListEventsInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	defer observeDB(ctx, "list_events_in_range")()

	query := `SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE user_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (r *PostgresRepository) GetEvent(ctx context.Context, userID, id uuid.UUID) (*domain.CalendarEvent, error) {
	defer observeDB(ctx, "get_event")()

	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE user_id = $1 AND id = $2`
	e, err := scanEvent(r.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		return nil, handleError("get event", err)
	}
	return e, nil
}

// upsertExternalEventQuery leaves is_locked and source alone on conflict.
const upsertExternalEventQuery = `
	INSERT INTO calendar_events (id, user_id, title, description, location, start_time, end_time, all_day,
		source, is_locked, external_provider, external_id, block_type, course_id, assignment_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
	ON CONFLICT (user_id, external_provider, external_id) DO UPDATE
	SET title = EXCLUDED.title,
	    description = EXCLUDED.description,
	    location = EXCLUDED.location,
	    start_time = EXCLUDED.start_time,
	    end_time = EXCLUDED.end_time,
	    all_day = EXCLUDED.all_day,
	    course_id = EXCLUDED.course_id,
	    updated_at = now()
	RETURNING ` + eventColumns

func (r *PostgresRepository) UpsertExternalEvent(ctx context.Context, event domain.CalendarEvent) (*domain.CalendarEvent, error) {
	defer observeDB(ctx, "upsert_external_event")()

	if event.ExternalRef == nil {
		return nil, fmt.Errorf("upsert external event: missing external ref")
	}
	if event.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		event.ID = id
	}
	extProvider, extID := externalColumns(event.ExternalRef)

	saved, err := scanEvent(r.pool.QueryRow(ctx, upsertExternalEventQuery,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.Location,
		event.StartTime,
		event.EndTime,
		event.AllDay,
		string(event.Source),
		event.IsLocked,
		extProvider,
		extID,
		blockTypeColumn(event.BlockType),
		event.CourseID,
		event.AssignmentID,
	))
	if err != nil {
		return nil, handleError("upsert event", err)
	}
	return saved, nil
}

func (r *PostgresRepository) SetEventLocked(ctx context.Context, userID, id uuid.UUID, locked bool) error {
	defer observeDB(ctx, "set_event_locked")()

	res, err := r.pool.Exec(ctx,
		`UPDATE calendar_events SET is_locked = $1, updated_at = now() WHERE user_id = $2 AND id = $3`,
		locked, userID, id)
	if err != nil {
		return fmt.Errorf("failed to update lock: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetEventExternalRef(ctx context.Context, userID, id uuid.UUID, ref domain.ExternalRef) error {
	defer observeDB(ctx, "set_event_external_ref")()

	res, err := r.pool.Exec(ctx, `
		UPDATE calendar_events
		SET external_provider = $1, external_id = $2, updated_at = now()
		WHERE user_id = $3 AND id = $4`,
		string(ref.Provider), ref.ExternalID, userID, id)
	if err != nil {
		return handleError("update external ref", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ReplaceGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time, wipe bool, blocks []domain.CalendarEvent) (int, error) {
	defer observeDB(ctx, "replace_generated_blocks")()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleted := 0
	if wipe {
		res, err := tx.Exec(ctx, deleteGeneratedQuery, userID, start, end)
		if err != nil {
			return 0, fmt.Errorf("failed to wipe generated blocks: %w", err)
		}
		deleted = int(res.RowsAffected())
	}

	for _, b := range blocks {
		id := b.ID
		if id == uuid.Nil {
			if id, err = uuid.NewV7(); err != nil {
				return 0, fmt.Errorf("failed to generate id: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, insertGeneratedQuery,
			id, userID, b.Title, b.Description, b.StartTime, b.EndTime,
			string(domain.EventSourceSystemGenerated), blockTypeColumn(b.BlockType), b.CourseID, b.AssignmentID,
		); err != nil {
			return 0, fmt.Errorf("failed to insert generated block: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deleted, nil
}

const insertGeneratedQuery = `
	INSERT INTO calendar_events (id, user_id, title, description, start_time, end_time, source, is_locked,
		block_type, course_id, assignment_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9, $10, now(), now())`

const deleteGeneratedQuery = `
	DELETE FROM calendar_events
	WHERE user_id = $1
	  AND source = 'SYSTEM_GENERATED'
	  AND is_locked = false
	  AND start_time < $3 AND end_time > $2`

func (r *PostgresRepository) DeleteGeneratedBlocks(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	defer observeDB(ctx, "delete_generated_blocks")()

	res, err := r.pool.Exec(ctx, deleteGeneratedQuery, userID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete generated blocks: %w", err)
	}
	return int(res.RowsAffected()), nil
}
