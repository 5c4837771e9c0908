package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
)

func TestHandleError(t *testing.T) {
	assert.ErrorIs(t, handleError("get", pgx.ErrNoRows), repo.ErrNotFound)
	assert.ErrorIs(t, handleError("get", fmt.Errorf("wrapped: %w", pgx.ErrNoRows)), repo.ErrNotFound)
	assert.ErrorIs(t, handleError("set", &pgconn.PgError{Code: "23505"}), repo.ErrConflict)

	other := errors.New("connection reset")
	err := handleError("upsert course", other)
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "failed to upsert course")
}

func TestColumnHelpers(t *testing.T) {
	p, id := externalColumns(nil)
	assert.Nil(t, p)
	assert.Nil(t, id)

	p, id = externalColumns(&domain.ExternalRef{Provider: domain.ProviderCanvas, ExternalID: "42"})
	assert.Equal(t, "canvas", *p)
	assert.Equal(t, "42", *id)

	assert.Nil(t, blockTypeColumn(nil))
	bt := domain.BlockTypeBreak
	assert.Equal(t, "BREAK", *blockTypeColumn(&bt))

	assert.NotNil(t, nonNilMeetings(nil))
}

type reverseCipher struct{}

func (reverseCipher) Encrypt(s string) (string, error) { return "enc:" + s, nil }
func (reverseCipher) Decrypt(s string) (string, error) { return s[len("enc:"):], nil }

func TestSealOpen(t *testing.T) {
	plain := &PostgresRepository{}
	v, err := plain.seal("secret")
	assert.NoError(t, err)
	assert.Equal(t, "secret", v)

	sealed := &PostgresRepository{cipher: reverseCipher{}}
	v, err = sealed.seal("secret")
	assert.NoError(t, err)
	assert.Equal(t, "enc:secret", v)

	v, err = sealed.open(v)
	assert.NoError(t, err)
	assert.Equal(t, "secret", v)

	v, err = sealed.seal("")
	assert.NoError(t, err)
	assert.Empty(t, v, "empty refresh tokens stay empty")
}
