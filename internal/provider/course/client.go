// Package course is a read-only client for the course provider REST API (Canvas LMS).
package course

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sync_service/internal/metrics"
	"sync_service/internal/provider"
)

const (
	providerName   = "canvas"
	defaultPerPage = 100
	maxErrorBody   = 4 << 10
	// maxPages bounds pagination against a misbehaving Link header.
	maxPages = 50
)

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	perPage    int
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		perPage:    defaultPerPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListCourses(ctx context.Context, creds provider.Credentials) ([]Course, error) {
	q := url.Values{}
	q.Set("enrollment_state", "active")

	var courses []Course
	if err := c.getAll(ctx, creds, "list courses", "/api/v1/courses", q, func(body []byte) error {
		var page []Course
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		for _, course := range page {
			if course.valid() {
				courses = append(courses, course)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, creds provider.Credentials, courseID string) (*Course, error) {
	var course Course
	if err := c.getAll(ctx, creds, "get course", "/api/v1/courses/"+url.PathEscape(courseID), nil, func(body []byte) error {
		return json.Unmarshal(body, &course)
	}); err != nil {
		return nil, err
	}
	if !course.valid() {
		return nil, provider.NewError(providerName, "get course", http.StatusNotFound, "course without id")
	}
	return &course, nil
}

// GetSelf returns the token owner; its id forms the personal calendar context "user_<id>".
func (c *Client) GetSelf(ctx context.Context, creds provider.Credentials) (*User, error) {
	var user User
	if err := c.getAll(ctx, creds, "get self", "/api/v1/users/self", nil, func(body []byte) error {
		return json.Unmarshal(body, &user)
	}); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, provider.NewError(providerName, "get self", http.StatusNotFound, "user without id")
	}
	return &user, nil
}

// ListAssignments returns the course's assignments with the caller's submission embedded.
func (c *Client) ListAssignments(ctx context.Context, creds provider.Credentials, courseID string) ([]Assignment, error) {
	q := url.Values{}
	q.Add("include[]", "submission")

	var assignments []Assignment
	path := "/api/v1/courses/" + url.PathEscape(courseID) + "/assignments"
	if err := c.getAll(ctx, creds, "list assignments", path, q, func(body []byte) error {
		var page []Assignment
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		for _, a := range page {
			if a.valid() {
				assignments = append(assignments, a)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (c *Client) ListCalendarEvents(ctx context.Context, creds provider.Credentials, contextCodes []string, start, end time.Time) ([]CalendarEvent, error) {
	q := url.Values{}
	q.Set("type", "event")
	q.Set("start_date", start.UTC().Format(time.RFC3339))
	q.Set("end_date", end.UTC().Format(time.RFC3339))
	for _, code := range contextCodes {
		q.Add("context_codes[]", code)
	}

	var events []CalendarEvent
	if err := c.getAll(ctx, creds, "list calendar events", "/api/v1/calendar_events", q, func(body []byte) error {
		var page []CalendarEvent
		if err := json.Unmarshal(body, &page); err != nil {
			return err
		}
		for _, e := range page {
			if e.valid() {
				events = append(events, e)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return events, nil
}

// getAll follows rel="next" links until exhausted. A nil query means a single-object GET.
func (c *Client) getAll(ctx context.Context, creds provider.Credentials, op, path string, q url.Values, decode func([]byte) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveProviderCall(providerName, op, start, err)
	}()

	if creds.AccessToken == "" || creds.BaseURL == "" {
		return provider.NewError(providerName, op, http.StatusUnauthorized, "missing credentials")
	}

	next, err := buildURL(creds.BaseURL, path, q, c.perPage)
	if err != nil {
		return provider.NewError(providerName, op, http.StatusUnauthorized, fmt.Sprintf("invalid base url: %v", err))
	}

	for page := 0; next != "" && page < maxPages; page++ {
		body, link, err := c.get(ctx, creds, op, next)
		if err != nil {
			return err
		}
		if err := decode(body); err != nil {
			return provider.Wrap(providerName, op, fmt.Errorf("decode response: %w", err))
		}
		if q == nil {
			return nil
		}
		next = nextLink(link)
	}
	if next != "" {
		return provider.NewKindError(providerName, op, 0, fmt.Sprintf("more than %d pages", maxPages), provider.ErrRejected)
	}
	return nil
}

func (c *Client) get(ctx context.Context, creds provider.Credentials, op, rawURL string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", provider.Wrap(providerName, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", provider.Wrap(providerName, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", provider.Wrap(providerName, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		if resp.StatusCode == http.StatusForbidden && throttled(resp.Header, msg) {
			return nil, "", provider.NewKindError(providerName, op, resp.StatusCode, msg, provider.ErrRateLimited)
		}
		return nil, "", provider.NewError(providerName, op, resp.StatusCode, msg)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", provider.Wrap(providerName, op, err)
	}
	return body, resp.Header.Get("Link"), nil
}

// throttled recognizes Canvas' 403 "Rate Limit Exceeded" answer.
func throttled(h http.Header, body string) bool {
	if strings.Contains(strings.ToLower(body), "rate limit exceeded") {
		return true
	}
	remaining := h.Get("X-Rate-Limit-Remaining")
	if remaining == "" {
		return false
	}
	v, err := strconv.ParseFloat(remaining, 64)
	return err == nil && v <= 0
}

func buildURL(baseURL, path string, q url.Values, perPage int) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		values := url.Values{}
		for k, v := range q {
			values[k] = append([]string(nil), v...)
		}
		values.Set("per_page", fmt.Sprint(perPage))
		u.RawQuery = values.Encode()
	}
	return u.String(), nil
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}
