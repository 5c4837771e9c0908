package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sync_service/internal/domain"
	"sync_service/internal/provider"
)

// ConnectCourseProvider verifies a personal access token with one course listing before storing it.
func (s *SyncService) ConnectCourseProvider(ctx context.Context, userID uuid.UUID, baseURL, accessToken string) error {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return fmt.Errorf("%w: access token is required", ErrInvalidArgument)
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: base url must be an absolute http(s) url", ErrInvalidArgument)
	}

	creds := provider.Credentials{AccessToken: accessToken, BaseURL: baseURL}
	if _, err := s.courses.ListCourses(ctx, creds); err != nil {
		if errors.Is(err, provider.ErrUnauthorized) {
			return fmt.Errorf("%w: course provider rejected the token", ErrInvalidArgument)
		}
		return fmt.Errorf("failed to verify course provider token: %w", err)
	}

	if err := s.tokens.SaveTokens(ctx, domain.ProviderToken{
		UserID:      userID,
		Provider:    domain.ProviderCanvas,
		AccessToken: accessToken,
		BaseURL:     baseURL,
	}); err != nil {
		return err
	}
	s.cache.Delete(ctx, availableCoursesKey(userID))
	s.logger.Info(ctx, "course provider connected", zap.String("base_url", baseURL))
	return nil
}

// CalendarAuthURL starts the authorization-code flow with a signed state.
func (s *SyncService) CalendarAuthURL(ctx context.Context, userID uuid.UUID) (string, error) {
	state, err := s.signer.Sign(userID, string(domain.ProviderGoogle))
	if err != nil {
		return "", err
	}
	return s.authorizer.AuthCodeURL(state), nil
}

// CompleteCalendarAuth exchanges the callback code and stores the tokens for the user named in state.
func (s *SyncService) CompleteCalendarAuth(ctx context.Context, state, code string) (uuid.UUID, error) {
	if code == "" {
		return uuid.Nil, fmt.Errorf("%w: missing authorization code", ErrInvalidArgument)
	}
	userID, err := s.signer.Verify(state, string(domain.ProviderGoogle))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	token, err := s.authorizer.Exchange(ctx, code)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := s.tokens.SaveTokens(ctx, domain.ProviderToken{
		UserID:       userID,
		Provider:     domain.ProviderGoogle,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}); err != nil {
		return uuid.Nil, err
	}
	s.logger.Info(ctx, "calendar provider connected", zap.String("user_id", userID.String()))
	return userID, nil
}

func (s *SyncService) Disconnect(ctx context.Context, userID uuid.UUID, p domain.Provider) error {
	if !p.IsConnectable() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidArgument, p)
	}
	if err := s.tokens.RemoveTokens(ctx, userID, p); err != nil {
		return err
	}
	if p == domain.ProviderCanvas {
		s.cache.Delete(ctx, availableCoursesKey(userID))
	}
	return nil
}
