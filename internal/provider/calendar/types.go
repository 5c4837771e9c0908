package calendar

import "time"

type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Status      string
	ColorID     string
}

type Reminder struct {
	Method  string
	Minutes int
}

type EventInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	ColorID     string
	Reminders   []Reminder
}

type TaskList struct {
	ID    string
	Title string
}

type Task struct {
	ID     string
	Title  string
	Notes  string
	Due    *time.Time
	Status string
}

type TaskInput struct {
	Title string
	Notes string
	Due   *time.Time
}

const (
	TaskStatusNeedsAction = "needsAction"
	TaskStatusCompleted   = "completed"
	// DefaultTaskList addresses the user's default task list.
	DefaultTaskList = "@default"
	PrimaryCalendar = "primary"
)
