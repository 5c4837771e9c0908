package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	gtasks "google.golang.org/api/tasks/v1"

	"sync_service/internal/provider"
)

var Scopes = []string{
	gcal.CalendarScope,
	gcal.CalendarEventsScope,
	gtasks.TasksScope,
}

// OAuth runs the authorization-code flow for the calendar provider.
type OAuth struct {
	config     *oauth2.Config
	httpClient *http.Client
}

type OAuthOption func(*OAuth)

func WithOAuthEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(o *OAuth) {
		o.config.Endpoint = endpoint
	}
}

func WithOAuthHTTPClient(httpClient *http.Client) OAuthOption {
	return func(o *OAuth) {
		o.httpClient = httpClient
	}
}

func NewOAuth(clientID, clientSecret, redirectURL string, opts ...OAuthOption) *OAuth {
	o := &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AuthCodeURL asks for offline access and forces the consent screen so a refresh token is issued.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := o.config.Exchange(o.context(ctx), code)
	if err != nil {
		return nil, mapOAuthError("exchange code", err)
	}
	return token, nil
}

// Refresh trades a refresh token for a new access token. The returned token may carry no refresh token.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, provider.NewError(providerName, "refresh token", http.StatusUnauthorized, "no refresh token stored")
	}
	token, err := o.config.TokenSource(o.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, mapOAuthError("refresh token", err)
	}
	return token, nil
}

func (o *OAuth) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func mapOAuthError(op string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		status := rerr.Response.StatusCode
		// invalid_grant comes back as 400 and means the grant is gone
		if status == http.StatusBadRequest {
			status = http.StatusUnauthorized
		}
		return provider.NewError(providerName, op, status, fmt.Sprintf("%s %s", rerr.ErrorCode, rerr.ErrorDescription))
	}
	return provider.Wrap(providerName, op, err)
}
