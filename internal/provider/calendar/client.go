// Package calendar wraps the Google Calendar and Tasks APIs behind typed calls.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"

	"sync_service/internal/metrics"
	"sync_service/internal/provider"
)

const (
	providerName = "google"
	maxResults   = 250
	maxPages     = 20
)

type Client struct {
	httpClient       *http.Client
	timeout          time.Duration
	calendarEndpoint string
	tasksEndpoint    string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints overrides the API base URLs, mainly for tests.
func WithEndpoints(calendarEndpoint, tasksEndpoint string) Option {
	return func(c *Client) {
		c.calendarEndpoint = calendarEndpoint
		c.tasksEndpoint = tasksEndpoint
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) authorizedClient(ctx context.Context, creds provider.Credentials) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   "Bearer",
	}))
}

func (c *Client) calendarService(ctx context.Context, creds provider.Credentials) (*gcal.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.authorizedClient(ctx, creds))}
	if c.calendarEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.calendarEndpoint))
	}
	return gcal.NewService(ctx, opts...)
}

func (c *Client) tasksService(ctx context.Context, creds provider.Credentials) (*gtasks.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.authorizedClient(ctx, creds))}
	if c.tasksEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.tasksEndpoint))
	}
	return gtasks.NewService(ctx, opts...)
}

// call bounds fn by the client timeout and records its latency.
func (c *Client) call(ctx context.Context, creds provider.Credentials, op string, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveProviderCall(providerName, op, start, err)
	}()

	if creds.AccessToken == "" {
		return provider.NewError(providerName, op, http.StatusUnauthorized, "missing access token")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		return mapError(op, err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, creds provider.Credentials, calendarID string, start, end time.Time) ([]Event, error) {
	var events []Event
	err := c.call(ctx, creds, "list events", func(ctx context.Context) error {
		svc, err := c.calendarService(ctx, creds)
		if err != nil {
			return err
		}
		pageToken := ""
		for page := 0; page < maxPages; page++ {
			call := svc.Events.List(calendarID).
				TimeMin(start.Format(time.RFC3339)).
				TimeMax(end.Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime").
				MaxResults(maxResults).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			resp, err := call.Do()
			if err != nil {
				return err
			}
			for _, item := range resp.Items {
				if ev, ok := fromGoogleEvent(item); ok {
					events = append(events, ev)
				}
			}
			if resp.NextPageToken == "" {
				return nil
			}
			pageToken = resp.NextPageToken
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, creds provider.Credentials, calendarID string, in EventInput) (*Event, error) {
	var created Event
	err := c.call(ctx, creds, "create event", func(ctx context.Context) error {
		svc, err := c.calendarService(ctx, creds)
		if err != nil {
			return err
		}
		resp, err := svc.Events.Insert(calendarID, toGoogleEvent(in)).Context(ctx).Do()
		if err != nil {
			return err
		}
		ev, ok := fromGoogleEvent(resp)
		if !ok {
			return fmt.Errorf("created event has no id")
		}
		created = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateEvent(ctx context.Context, creds provider.Credentials, calendarID, eventID string, in EventInput) (*Event, error) {
	var updated Event
	err := c.call(ctx, creds, "update event", func(ctx context.Context) error {
		svc, err := c.calendarService(ctx, creds)
		if err != nil {
			return err
		}
		resp, err := svc.Events.Update(calendarID, eventID, toGoogleEvent(in)).Context(ctx).Do()
		if err != nil {
			return err
		}
		updated, _ = fromGoogleEvent(resp)
		if updated.ID == "" {
			updated.ID = eventID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteEvent(ctx context.Context, creds provider.Credentials, calendarID, eventID string) error {
	return c.call(ctx, creds, "delete event", func(ctx context.Context) error {
		svc, err := c.calendarService(ctx, creds)
		if err != nil {
			return err
		}
		return svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	})
}

func (c *Client) ListTaskLists(ctx context.Context, creds provider.Credentials) ([]TaskList, error) {
	var lists []TaskList
	err := c.call(ctx, creds, "list task lists", func(ctx context.Context) error {
		svc, err := c.tasksService(ctx, creds)
		if err != nil {
			return err
		}
		resp, err := svc.Tasklists.List().MaxResults(100).Context(ctx).Do()
		if err != nil {
			return err
		}
		for _, item := range resp.Items {
			lists = append(lists, TaskList{ID: item.Id, Title: item.Title})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) CreateTask(ctx context.Context, creds provider.Credentials, taskListID string, in TaskInput) (*Task, error) {
	var created Task
	err := c.call(ctx, creds, "create task", func(ctx context.Context) error {
		svc, err := c.tasksService(ctx, creds)
		if err != nil {
			return err
		}
		task := &gtasks.Task{Title: in.Title, Notes: in.Notes}
		if in.Due != nil {
			task.Due = in.Due.UTC().Format(time.RFC3339)
		}
		resp, err := svc.Tasks.Insert(taskListID, task).Context(ctx).Do()
		if err != nil {
			return err
		}
		created = fromGoogleTask(resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) CompleteTask(ctx context.Context, creds provider.Credentials, taskListID, taskID string) error {
	return c.call(ctx, creds, "complete task", func(ctx context.Context) error {
		svc, err := c.tasksService(ctx, creds)
		if err != nil {
			return err
		}
		_, err = svc.Tasks.Patch(taskListID, taskID, &gtasks.Task{Status: TaskStatusCompleted}).Context(ctx).Do()
		return err
	})
}

func toGoogleEvent(in EventInput) *gcal.Event {
	ev := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		ColorId:     in.ColorID,
		Start:       &gcal.EventDateTime{DateTime: in.Start.Format(time.RFC3339), TimeZone: in.TimeZone},
		End:         &gcal.EventDateTime{DateTime: in.End.Format(time.RFC3339), TimeZone: in.TimeZone},
	}
	if len(in.Reminders) > 0 {
		overrides := make([]*gcal.EventReminder, 0, len(in.Reminders))
		for _, r := range in.Reminders {
			overrides = append(overrides, &gcal.EventReminder{Method: r.Method, Minutes: int64(r.Minutes)})
		}
		ev.Reminders = &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return ev
}

func fromGoogleEvent(item *gcal.Event) (Event, bool) {
	if item == nil || item.Id == "" {
		return Event{}, false
	}
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		ColorID:     item.ColorId,
	}
	start, allDay, ok := parseEventTime(item.Start)
	if !ok {
		return Event{}, false
	}
	ev.Start = start
	ev.AllDay = allDay
	if end, _, ok := parseEventTime(item.End); ok {
		ev.End = end
	} else {
		ev.End = start
	}
	return ev, true
}

func parseEventTime(dt *gcal.EventDateTime) (time.Time, bool, bool) {
	if dt == nil {
		return time.Time{}, false, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, false, err == nil
	}
	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		return t, true, err == nil
	}
	return time.Time{}, false, false
}

func fromGoogleTask(item *gtasks.Task) Task {
	task := Task{ID: item.Id, Title: item.Title, Notes: item.Notes, Status: item.Status}
	if item.Due != "" {
		if due, err := time.Parse(time.RFC3339, item.Due); err == nil {
			task.Due = &due
		}
	}
	return task
}

func mapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusForbidden && isRateLimitReason(gerr) {
			return provider.NewKindError(providerName, op, gerr.Code, gerr.Message, provider.ErrRateLimited)
		}
		return provider.NewError(providerName, op, gerr.Code, gerr.Message)
	}
	return provider.Wrap(providerName, op, err)
}

func isRateLimitReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}
