// Package tokenvault owns provider credentials: it stores them and refreshes them before they expire.
package tokenvault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"sync_service/internal/database/repo"
	"sync_service/internal/domain"
	"sync_service/internal/lock"
	"sync_service/internal/metrics"
	"sync_service/internal/provider"
	"sync_service/pkg/logging"
)

var ErrNotConnected = errors.New("provider not connected")

const (
	DefaultRefreshMargin = 5 * time.Minute
	defaultLockTTL       = 30 * time.Second
	lockPollInterval     = 100 * time.Millisecond
)

// Refresher exchanges a refresh token for a new token with one outbound call.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type Vault struct {
	tokens     repo.TokenRepository
	locker     lock.Locker
	refreshers map[domain.Provider]Refresher
	group      singleflight.Group
	margin     time.Duration
	lockTTL    time.Duration
	logger     *logging.Logger
	now        func() time.Time
}

type Option func(*Vault)

func WithRefresher(p domain.Provider, r Refresher) Option {
	return func(v *Vault) {
		v.refreshers[p] = r
	}
}

func WithRefreshMargin(margin time.Duration) Option {
	return func(v *Vault) {
		if margin > 0 {
			v.margin = margin
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.now = now
	}
}

func New(tokens repo.TokenRepository, locker lock.Locker, logger *logging.Logger, opts ...Option) *Vault {
	v := &Vault{
		tokens:     tokens,
		locker:     locker,
		refreshers: make(map[domain.Provider]Refresher),
		margin:     DefaultRefreshMargin,
		lockTTL:    defaultLockTTL,
		logger:     logger.Named("tokenvault"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// GetValidAccessToken returns credentials whose access token is good for at least the refresh margin.
// A failed refresh yields ErrNotConnected and leaves the stored token as it was.
func (v *Vault) GetValidAccessToken(ctx context.Context, userID uuid.UUID, p domain.Provider) (provider.Credentials, error) {
	token, err := v.load(ctx, userID, p)
	if err != nil {
		return provider.Credentials{}, err
	}
	if !token.ExpiresWithin(v.now(), v.margin) {
		return credentials(token), nil
	}

	key := userID.String() + ":" + string(p)
	res, err, _ := v.group.Do(key, func() (interface{}, error) {
		return v.refreshLocked(ctx, userID, p)
	})
	if err != nil {
		return provider.Credentials{}, err
	}
	return credentials(res.(*domain.ProviderToken)), nil
}

func (v *Vault) load(ctx context.Context, userID uuid.UUID, p domain.Provider) (*domain.ProviderToken, error) {
	token, err := v.tokens.GetToken(ctx, userID, p)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s token: %w", p, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, p)
	}
	return token, nil
}

// refreshLocked serializes refreshes of one (user, provider) across replicas.
func (v *Vault) refreshLocked(ctx context.Context, userID uuid.UUID, p domain.Provider) (*domain.ProviderToken, error) {
	release, err := lock.Acquire(ctx, v.locker, "refresh:"+userID.String()+":"+string(p), v.lockTTL, lockPollInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s token refresh: %w", p, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			v.logger.Warn(ctx, "failed to release refresh lock", zap.Error(err))
		}
	}()

	// another replica may have refreshed while we waited
	token, err := v.load(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	if !token.ExpiresWithin(v.now(), v.margin) {
		return token, nil
	}
	return v.refresh(ctx, token)
}

func (v *Vault) refresh(ctx context.Context, token *domain.ProviderToken) (*domain.ProviderToken, error) {
	refresher, ok := v.refreshers[token.Provider]
	if !ok || token.RefreshToken == "" {
		v.logger.Warn(ctx, "token expired and cannot be refreshed",
			zap.String("provider", string(token.Provider)))
		return nil, fmt.Errorf("%w: %s token expired", ErrNotConnected, token.Provider)
	}

	fresh, err := refresher.Refresh(ctx, token.RefreshToken)
	metrics.RecordTokenRefresh(string(token.Provider), err)
	if err != nil {
		v.logger.Error(ctx, "token refresh failed",
			zap.String("provider", string(token.Provider)),
			zap.Bool("transient", provider.IsTransient(err)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: refresh %s token: %w", ErrNotConnected, token.Provider, err)
	}

	updated := *token
	updated.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		updated.RefreshToken = fresh.RefreshToken
	}
	updated.ExpiresAt = fresh.Expiry
	updated.UpdatedAt = v.now().UTC()
	if err := v.tokens.SaveToken(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save refreshed %s token: %w", token.Provider, err)
	}
	v.logger.Info(ctx, "token refreshed",
		zap.String("provider", string(token.Provider)),
		zap.Time("expires_at", updated.ExpiresAt))
	return &updated, nil
}

func (v *Vault) SaveTokens(ctx context.Context, token domain.ProviderToken) error {
	if token.UserID == uuid.Nil || !token.Provider.IsConnectable() {
		return fmt.Errorf("invalid token owner %s/%s", token.UserID, token.Provider)
	}
	if token.AccessToken == "" {
		return errors.New("access token is required")
	}
	now := v.now().UTC()
	if existing, err := v.tokens.GetToken(ctx, token.UserID, token.Provider); err == nil {
		token.CreatedAt = existing.CreatedAt
		if token.RefreshToken == "" {
			token.RefreshToken = existing.RefreshToken
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("failed to load %s token: %w", token.Provider, err)
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now
	if err := v.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to save %s token: %w", token.Provider, err)
	}
	return nil
}

func (v *Vault) RemoveTokens(ctx context.Context, userID uuid.UUID, p domain.Provider) error {
	err := v.tokens.DeleteToken(ctx, userID, p)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotConnected, p)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s token: %w", p, err)
	}
	return nil
}

// IsConnected reports whether any token is stored, without refreshing it.
func (v *Vault) IsConnected(ctx context.Context, userID uuid.UUID, p domain.Provider) (bool, error) {
	_, err := v.load(ctx, userID, p)
	if errors.Is(err, ErrNotConnected) {
		return false, nil
	}
	return err == nil, err
}

func credentials(t *domain.ProviderToken) provider.Credentials {
	return provider.Credentials{AccessToken: t.AccessToken, BaseURL: t.BaseURL}
}
