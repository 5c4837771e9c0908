// Package proposal calls the external schedule proposal generator over HTTP.
package proposal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sync_service/internal/metrics"
	"sync_service/internal/provider"
)

const (
	generatorName = "proposal_generator"
	maxErrorBody  = 4 << 10
)

var ErrGeneratorFailed = errors.New("proposal generator failed")

type Assignment struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	CourseID       string     `json:"course_id"`
	DueAt          *time.Time `json:"due_date,omitempty"`
	Status         string     `json:"status"`
	PointsPossible float64    `json:"points_possible"`
}

type Pillar struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Source    string    `json:"source"`
	IsLocked  bool      `json:"is_locked"`
}

type Preferences struct {
	StudyBlockMinutes int `json:"study_block_duration"`
	BreakMinutes      int `json:"break_duration"`
	TravelMinutes     int `json:"travel_duration"`
}

type Request struct {
	RangeStart           time.Time    `json:"range_start"`
	RangeEnd             time.Time    `json:"range_end"`
	Assignments          []Assignment `json:"assignments"`
	Pillars              []Pillar     `json:"existing_events"`
	Preferences          Preferences  `json:"user_preferences"`
	PrioritizedCourseIDs []string     `json:"prioritize_courses"`
	WellnessState        string       `json:"wellness_state"`
}

// Block is one proposed placement. Times are left as sent; the caller validates them.
type Block struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	CourseID     string `json:"course_id,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

type Response struct {
	Success  bool    `json:"success"`
	Schedule []Block `json:"schedule"`
	Message  string  `json:"message"`
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{url: url, httpClient: httpClient}
}

func (c *Client) Propose(ctx context.Context, req Request) (_ []Block, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall(generatorName, "propose", start, err) }()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proposal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build proposal request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.Wrap(generatorName, "propose", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, provider.NewError(generatorName, "propose", resp.StatusCode, string(msg))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrGeneratorFailed, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrGeneratorFailed, out.Message)
	}
	return out.Schedule, nil
}
