package domain

type Provider string

const (
	ProviderCanvas Provider = "canvas"
	ProviderGoogle Provider = "google"
	// ProviderClassSchedule keys class meetings expanded locally from a weekly pattern.
	ProviderClassSchedule Provider = "class_schedule"
)

// IsConnectable reports whether users hold credentials for the provider.
func (p Provider) IsConnectable() bool {
	switch p {
	case ProviderCanvas, ProviderGoogle:
		return true
	default:
		return false
	}
}

func ToProvider(provider string) (Provider, bool) {
	switch Provider(provider) {
	case ProviderCanvas:
		return ProviderCanvas, true
	case ProviderGoogle:
		return ProviderGoogle, true
	case ProviderClassSchedule:
		return ProviderClassSchedule, true
	default:
		return "", false
	}
}

type AssignmentStatus string

const (
	AssignmentStatusNotStarted AssignmentStatus = "NOT_STARTED"
	AssignmentStatusInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentStatusCompleted  AssignmentStatus = "COMPLETED"
)

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusNotStarted, AssignmentStatusInProgress, AssignmentStatusCompleted:
		return true
	default:
		return false
	}
}

func (s AssignmentStatus) IsOpen() bool {
	return s == AssignmentStatusNotStarted || s == AssignmentStatusInProgress
}

func ToAssignmentStatus(status string) (AssignmentStatus, bool) {
	s := AssignmentStatus(status)
	return s, s.IsValid()
}

type EventSource string

const (
	EventSourceManual          EventSource = "MANUAL"
	EventSourceProviderCourse  EventSource = "PROVIDER_COURSE"
	EventSourceSystemGenerated EventSource = "SYSTEM_GENERATED"
)

func (s EventSource) IsValid() bool {
	switch s {
	case EventSourceManual, EventSourceProviderCourse, EventSourceSystemGenerated:
		return true
	default:
		return false
	}
}

type BlockType string

const (
	BlockTypeStudy BlockType = "STUDY_BLOCK"
	BlockTypeBreak BlockType = "BREAK"
)

func (t BlockType) IsValid() bool {
	switch t {
	case BlockTypeStudy, BlockTypeBreak:
		return true
	default:
		return false
	}
}

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusPartial SyncStatus = "PARTIAL"
	SyncStatusError   SyncStatus = "ERROR"
	SyncStatusSkipped SyncStatus = "SKIPPED"
)

type SyncKind string

const (
	SyncKindCourses  SyncKind = "courses"
	SyncKindCalendar SyncKind = "calendar"
)
