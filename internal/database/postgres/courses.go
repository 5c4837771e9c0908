package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
)

const courseColumns = `id, user_id, provider_course_id, name, code, is_tracked, meeting_times, last_synced_at, created_at, updated_at`

func scanCourse(row pgx.Row) (*domain.TrackedCourse, error) {
	var c domain.TrackedCourse
	var meetings []byte
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ProviderCourseID,
		&c.Name,
		&c.Code,
		&c.IsTracked,
		&meetings,
		&c.LastSyncedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(meetings) > 0 {
		if err := json.Unmarshal(meetings, &c.MeetingTimes); err != nil {
			return nil, fmt.Errorf("decode meeting times: %w", err)
		}
	}
	return &c, nil
}

func (r *PostgresRepository) ListTrackedCourses(ctx context.Context, userID uuid.UUID) ([]domain.TrackedCourse, error) {
	defer observeDB(ctx, "list_tracked_courses")()

	query := `SELECT ` + courseColumns + `
		FROM tracked_courses
		WHERE user_id = $1 AND is_tracked = true
		ORDER BY provider_course_id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.TrackedCourse
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}

func (r *PostgresRepository) GetCourse(ctx context.Context, userID uuid.UUID, providerCourseID string) (*domain.TrackedCourse, error) {
	defer observeDB(ctx, "get_course")()

	query := `SELECT ` + courseColumns + `
		FROM tracked_courses
		WHERE user_id = $1 AND provider_course_id = $2`

	c, err := scanCourse(r.pool.QueryRow(ctx, query, userID, providerCourseID))
	if err != nil {
		return nil, handleError("get course", err)
	}
	return c, nil
}

func (r *PostgresRepository) UpsertCourse(ctx context.Context, course domain.TrackedCourse) (*domain.TrackedCourse, error) {
	defer observeDB(ctx, "upsert_course")()

	if course.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		course.ID = id
	}
	meetings, err := json.Marshal(nonNilMeetings(course.MeetingTimes))
	if err != nil {
		return nil, fmt.Errorf("encode meeting times: %w", err)
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO tracked_courses (id, user_id, provider_course_id, name, code, is_tracked, meeting_times, last_synced_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id, provider_course_id) DO UPDATE
		SET name = EXCLUDED.name,
		    code = EXCLUDED.code,
		    last_synced_at = COALESCE(EXCLUDED.last_synced_at, tracked_courses.last_synced_at),
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + courseColumns

	c, err := scanCourse(r.pool.QueryRow(ctx, query,
		course.ID,
		course.UserID,
		course.ProviderCourseID,
		course.Name,
		course.Code,
		course.IsTracked,
		meetings,
		course.LastSyncedAt,
		now,
	))
	if err != nil {
		return nil, handleError("upsert course", err)
	}
	return c, nil
}

func (r *PostgresRepository) SetCourseTracked(ctx context.Context, userID uuid.UUID, providerCourseID string, tracked bool) error {
	defer observeDB(ctx, "set_course_tracked")()

	query := `
		UPDATE tracked_courses
		SET is_tracked = $1, updated_at = now()
		WHERE user_id = $2 AND provider_course_id = $3
	`

	res, err := r.pool.Exec(ctx, query, tracked, userID, providerCourseID)
	if err != nil {
		return fmt.Errorf("failed to update course tracking: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetMeetingTimes(ctx context.Context, userID uuid.UUID, providerCourseID string, meetings []domain.MeetingTime) error {
	defer observeDB(ctx, "set_meeting_times")()

	payload, err := json.Marshal(nonNilMeetings(meetings))
	if err != nil {
		return fmt.Errorf("encode meeting times: %w", err)
	}

	query := `
		UPDATE tracked_courses
		SET meeting_times = $1, updated_at = now()
		WHERE user_id = $2 AND provider_course_id = $3
	`

	res, err := r.pool.Exec(ctx, query, payload, userID, providerCourseID)
	if err != nil {
		return fmt.Errorf("failed to update meeting times: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func nonNilMeetings(m []domain.MeetingTime) []domain.MeetingTime {
	if m == nil {
		return []domain.MeetingTime{}
	}
	return m
}
