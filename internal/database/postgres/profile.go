package postgres

import (
	"context"

	"github.com/google/uuid"

	"sync_service/internal/domain"
)

func (r *PostgresRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.Preferences, error) {
	defer observeDB(ctx, "get_preferences")()

	p := domain.Preferences{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT study_block_minutes, break_minutes, travel_minutes
		FROM user_preferences
		WHERE user_id = $1`, userID,
	).Scan(&p.StudyBlockMinutes, &p.BreakMinutes, &p.TravelMinutes)
	if err != nil {
		return nil, handleError("get preferences", err)
	}
	return &p, nil
}

func (r *PostgresRepository) LatestCheckInSentiment(ctx context.Context, userID uuid.UUID) (string, error) {
	defer observeDB(ctx, "latest_checkin_sentiment")()

	var sentiment string
	err := r.pool.QueryRow(ctx, `
		SELECT sentiment
		FROM wellness_checkins
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID,
	).Scan(&sentiment)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", handleError("get latest check-in", err)
	}
	return sentiment, nil
}
