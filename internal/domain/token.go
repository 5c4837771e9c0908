package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProviderToken struct {
	UserID       uuid.UUID
	Provider     Provider
	AccessToken  string
	RefreshToken string
	// ExpiresAt is zero for tokens that never expire (course provider personal tokens).
	ExpiresAt time.Time
	// BaseURL is the user's institution endpoint for the course provider.
	BaseURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpiresWithin reports whether the token is expired or will expire inside margin.
func (t ProviderToken) ExpiresWithin(now time.Time, margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(t.ExpiresAt)
}
