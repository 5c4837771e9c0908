package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
)

func (r *PostgresRepository) GetToken(ctx context.Context, userID uuid.UUID, provider domain.Provider) (*domain.ProviderToken, error) {
	defer observeDB(ctx, "get_token")()

	query := `
		SELECT user_id, provider, access_token, refresh_token, expires_at, base_url, created_at, updated_at
		FROM provider_tokens
		WHERE user_id = $1 AND provider = $2
	`

	var t domain.ProviderToken
	var providerName string
	var expiresAt *time.Time
	err := r.pool.QueryRow(ctx, query, userID, string(provider)).Scan(
		&t.UserID,
		&providerName,
		&t.AccessToken,
		&t.RefreshToken,
		&expiresAt,
		&t.BaseURL,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, handleError("get token", err)
	}
	t.Provider = domain.Provider(providerName)
	if expiresAt != nil {
		t.ExpiresAt = *expiresAt
	}

	if t.AccessToken, err = r.open(t.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	if t.RefreshToken, err = r.open(t.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) SaveToken(ctx context.Context, token domain.ProviderToken) error {
	defer observeDB(ctx, "save_token")()

	access, err := r.seal(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := r.seal(token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	var expiresAt *time.Time
	if !token.ExpiresAt.IsZero() {
		expiresAt = &token.ExpiresAt
	}

	query := `
		INSERT INTO provider_tokens (user_id, provider, access_token, refresh_token, expires_at, base_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (user_id, provider) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at,
		    base_url = EXCLUDED.base_url,
		    updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query,
		token.UserID,
		string(token.Provider),
		access,
		refresh,
		expiresAt,
		token.BaseURL,
	); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteToken(ctx context.Context, userID uuid.UUID, provider domain.Provider) error {
	defer observeDB(ctx, "delete_token")()

	res, err := r.pool.Exec(ctx, `DELETE FROM provider_tokens WHERE user_id = $1 AND provider = $2`, userID, string(provider))
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) seal(value string) (string, error) {
	if r.cipher == nil || value == "" {
		return value, nil
	}
	return r.cipher.Encrypt(value)
}

func (r *PostgresRepository) open(value string) (string, error) {
	if r.cipher == nil || value == "" {
		return value, nil
	}
	return r.cipher.Decrypt(value)
}
