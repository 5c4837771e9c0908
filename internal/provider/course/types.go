package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID accepts both numeric and string identifiers and normalizes them to a string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Course struct {
	ID            ID         `json:"id"`
	Name          string     `json:"name"`
	CourseCode    string     `json:"course_code"`
	WorkflowState string     `json:"workflow_state"`
	StartAt       *time.Time `json:"start_at"`
	EndAt         *time.Time `json:"end_at"`
}

type User struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ContextCode is the user's personal calendar context.
func (u User) ContextCode() string {
	return "user_" + u.ID.String()
}

type Submission struct {
	WorkflowState string     `json:"workflow_state"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	Score         *float64   `json:"score"`
}

type Assignment struct {
	ID             ID          `json:"id"`
	CourseID       ID          `json:"course_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	DueAt          *time.Time  `json:"due_at"`
	PointsPossible *float64    `json:"points_possible"`
	HTMLURL        string      `json:"html_url"`
	Submission     *Submission `json:"submission"`
}

// WorkflowState is the submission state, "unsubmitted" when the provider sent none.
func (a Assignment) WorkflowState() string {
	if a.Submission == nil || a.Submission.WorkflowState == "" {
		return "unsubmitted"
	}
	return a.Submission.WorkflowState
}

type CalendarEvent struct {
	ID           ID         `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	AllDay       bool       `json:"all_day"`
	AllDayDate   string     `json:"all_day_date"`
	ContextCode  string     `json:"context_code"`
	LocationName string     `json:"location_name"`
	HTMLURL      string     `json:"html_url"`
}

func (c Course) valid() bool {
	return c.ID != ""
}

func (a Assignment) valid() bool {
	return a.ID != ""
}

func (e CalendarEvent) valid() bool {
	return e.ID != "" && (e.StartAt != nil || e.AllDayDate != "")
}
