package oauthstate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	userID := uuid.New()

	state, err := s.Sign(userID, "google")
	require.NoError(t, err)

	got, err := s.Verify(state, "google")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestSigner_Rejects(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	s := NewSigner("secret", time.Minute)
	s.now = func() time.Time { return now }

	state, err := s.Sign(uuid.New(), "google")
	require.NoError(t, err)

	t.Run("wrong provider", func(t *testing.T) {
		_, err := s.Verify(state, "canvas")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSigner("other", time.Minute)
		other.now = s.now
		_, err := other.Verify(state, "google")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewSigner("secret", time.Minute)
		later.now = func() time.Time { return now.Add(2 * time.Minute) }
		_, err := later.Verify(state, "google")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("not-a-jwt", "google")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}
