package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
)

const assignmentColumns = `id, user_id, provider_assignment_id, course_id, title, description, html_url, due_at,
	points_possible, status, provider_workflow_state, synced_at, calendar_event_id, calendar_task_id,
	completed_at, reminded_at, created_at, updated_at`

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	var status string
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProviderAssignmentID,
		&a.CourseID,
		&a.Title,
		&a.Description,
		&a.HTMLURL,
		&a.DueAt,
		&a.PointsPossible,
		&status,
		&a.ProviderWorkflowState,
		&a.SyncedAt,
		&a.CalendarEventID,
		&a.CalendarTaskID,
		&a.CompletedAt,
		&a.RemindedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = domain.AssignmentStatus(status)
	return &a, nil
}

func (r *PostgresRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]domain.Assignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

func (r *PostgresRepository) GetAssignment(ctx context.Context, userID, id uuid.UUID) (*domain.Assignment, error) {
	defer observeDB(ctx, "get_assignment")()

	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = $1 AND id = $2`
	a, err := scanAssignment(r.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		return nil, handleError("get assignment", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetAssignmentByProviderID(ctx context.Context, userID uuid.UUID, providerAssignmentID string) (*domain.Assignment, error) {
	defer observeDB(ctx, "get_assignment_by_provider_id")()

	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE user_id = $1 AND provider_assignment_id = $2`
	a, err := scanAssignment(r.pool.QueryRow(ctx, query, userID, providerAssignmentID))
	if err != nil {
		return nil, handleError("get assignment", err)
	}
	return a, nil
}

// UpsertAssignment keeps IN_PROGRESS in SQL as well, so a user action racing a sync pass is never lost.
func (r *PostgresRepository) UpsertAssignment(ctx context.Context, a domain.Assignment) (*domain.Assignment, error) {
	defer observeDB(ctx, "upsert_assignment")()

	if a.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		a.ID = id
	}
	if a.SyncedAt.IsZero() {
		a.SyncedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO assignments (id, user_id, provider_assignment_id, course_id, title, description, html_url,
			due_at, points_possible, status, provider_workflow_state, synced_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $12, $12)
		ON CONFLICT (user_id, provider_assignment_id) DO UPDATE
		SET course_id = EXCLUDED.course_id,
		    title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    html_url = EXCLUDED.html_url,
		    due_at = EXCLUDED.due_at,
		    points_possible = EXCLUDED.points_possible,
		    status = CASE WHEN assignments.status = 'IN_PROGRESS' THEN assignments.status ELSE EXCLUDED.status END,
		    completed_at = CASE
		        WHEN assignments.status = 'IN_PROGRESS' THEN assignments.completed_at
		        WHEN EXCLUDED.status = 'COMPLETED' THEN COALESCE(assignments.completed_at, EXCLUDED.completed_at)
		        ELSE NULL END,
		    provider_workflow_state = EXCLUDED.provider_workflow_state,
		    synced_at = EXCLUDED.synced_at,
		    updated_at = EXCLUDED.synced_at
		RETURNING ` + assignmentColumns

	saved, err := scanAssignment(r.pool.QueryRow(ctx, query,
		a.ID,
		a.UserID,
		a.ProviderAssignmentID,
		a.CourseID,
		a.Title,
		a.Description,
		a.HTMLURL,
		a.DueAt,
		a.PointsPossible,
		string(a.Status),
		a.ProviderWorkflowState,
		a.SyncedAt,
		a.CompletedAt,
	))
	if err != nil {
		return nil, handleError("upsert assignment", err)
	}
	return saved, nil
}

func (r *PostgresRepository) ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.Assignment, error) {
	defer observeDB(ctx, "list_assignments")()

	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.DueAfter != nil {
		args = append(args, *filter.DueAfter)
		conditions = append(conditions, fmt.Sprintf("due_at >= $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		conditions = append(conditions, fmt.Sprintf("due_at <= $%d", len(args)))
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY due_at ASC NULLS LAST, id ASC`

	return r.queryAssignments(ctx, query, args...)
}

func (r *PostgresRepository) UpdateAssignmentStatus(ctx context.Context, userID, id uuid.UUID, status domain.AssignmentStatus, completedAt *time.Time) error {
	defer observeDB(ctx, "update_assignment_status")()

	query := `
		UPDATE assignments
		SET status = $1, completed_at = $2, updated_at = now()
		WHERE user_id = $3 AND id = $4
	`

	res, err := r.pool.Exec(ctx, query, string(status), completedAt, userID, id)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetAssignmentCalendarEvent(ctx context.Context, userID, id uuid.UUID, eventID string) error {
	defer observeDB(ctx, "set_assignment_calendar_event")()
	return r.setAssignmentColumn(ctx, "calendar_event_id", userID, id, eventID)
}

func (r *PostgresRepository) SetAssignmentTask(ctx context.Context, userID, id uuid.UUID, taskID string) error {
	defer observeDB(ctx, "set_assignment_task")()
	return r.setAssignmentColumn(ctx, "calendar_task_id", userID, id, taskID)
}

// setAssignmentColumn only accepts the mapping columns above; column is never user input.
func (r *PostgresRepository) setAssignmentColumn(ctx context.Context, column string, userID, id uuid.UUID, value string) error {
	query := `UPDATE assignments SET ` + column + ` = $1, updated_at = now() WHERE user_id = $2 AND id = $3`

	res, err := r.pool.Exec(ctx, query, value, userID, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAssignmentsDueSoon(ctx context.Context, now time.Time, window time.Duration) ([]domain.Assignment, error) {
	defer observeDB(ctx, "list_assignments_due_soon")()

	query := `SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE due_at > $1 AND due_at <= $2
		  AND status <> 'COMPLETED'
		  AND reminded_at IS NULL
		ORDER BY due_at ASC`

	return r.queryAssignments(ctx, query, now, now.Add(window))
}

func (r *PostgresRepository) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer observeDB(ctx, "mark_reminded")()

	res, err := r.pool.Exec(ctx, `UPDATE assignments SET reminded_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark assignment reminded: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
