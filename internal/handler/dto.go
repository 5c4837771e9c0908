package handler

import (
	"time"

	"github.com/google/uuid"

	"sync_service/internal/domain"
	"sync_service/internal/service"
)

type eventResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Location     string     `json:"location,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	AllDay       bool       `json:"all_day"`
	Source       string     `json:"source"`
	IsLocked     bool       `json:"is_locked"`
	BlockType    *string    `json:"block_type,omitempty"`
	CourseID     *string    `json:"course_id,omitempty"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
}

func toEventResponse(e domain.CalendarEvent) eventResponse {
	resp := eventResponse{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		AllDay:       e.AllDay,
		Source:       string(e.Source),
		IsLocked:     e.IsLocked,
		CourseID:     e.CourseID,
		AssignmentID: e.AssignmentID,
	}
	if e.BlockType != nil {
		bt := string(*e.BlockType)
		resp.BlockType = &bt
	}
	return resp
}

func toEventResponses(events []domain.CalendarEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

type assignmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProviderID     string     `json:"provider_assignment_id"`
	CourseID       string     `json:"course_id"`
	Title          string     `json:"title"`
	HTMLURL        string     `json:"html_url,omitempty"`
	DueAt          *time.Time `json:"due_at"`
	PointsPossible *float64   `json:"points_possible,omitempty"`
	Status         string     `json:"status"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	SyncedAt       time.Time  `json:"synced_at"`
}

func toAssignmentResponse(a domain.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:             a.ID,
		ProviderID:     a.ProviderAssignmentID,
		CourseID:       a.CourseID,
		Title:          a.Title,
		HTMLURL:        a.HTMLURL,
		DueAt:          a.DueAt,
		PointsPossible: a.PointsPossible,
		Status:         string(a.Status),
		CompletedAt:    a.CompletedAt,
		SyncedAt:       a.SyncedAt,
	}
}

type courseResponse struct {
	ProviderCourseID string               `json:"course_id"`
	Name             string               `json:"name"`
	Code             string               `json:"code"`
	IsTracked        bool                 `json:"is_tracked"`
	MeetingTimes     []domain.MeetingTime `json:"meeting_times"`
	LastSyncedAt     *time.Time           `json:"last_synced_at,omitempty"`
}

func toCourseResponse(c domain.TrackedCourse) courseResponse {
	meetings := c.MeetingTimes
	if meetings == nil {
		meetings = []domain.MeetingTime{}
	}
	return courseResponse{
		ProviderCourseID: c.ProviderCourseID,
		Name:             c.Name,
		Code:             c.Code,
		IsTracked:        c.IsTracked,
		MeetingTimes:     meetings,
		LastSyncedAt:     c.LastSyncedAt,
	}
}

type syncStateResponse struct {
	LastCourseSyncAt   *time.Time `json:"last_course_sync_at"`
	LastCalendarSyncAt *time.Time `json:"last_calendar_sync_at"`
	AutoSyncEnabled    bool       `json:"auto_sync_enabled"`
	IntervalHours      int        `json:"sync_interval_hours"`
	LastStatus         *string    `json:"last_sync_status"`
	LastError          *string    `json:"last_error"`
}

func toSyncStateResponse(s domain.SyncState) syncStateResponse {
	resp := syncStateResponse{
		LastCourseSyncAt:   s.LastCourseSyncAt,
		LastCalendarSyncAt: s.LastCalendarSyncAt,
		AutoSyncEnabled:    s.AutoSyncEnabled,
		IntervalHours:      s.IntervalHours,
		LastError:          s.LastError,
	}
	if s.LastStatus != nil {
		st := string(*s.LastStatus)
		resp.LastStatus = &st
	}
	return resp
}

type generateResponse struct {
	Start       time.Time               `json:"range_start"`
	End         time.Time               `json:"range_end"`
	Pillars     int                     `json:"pillars"`
	Deleted     int                     `json:"deleted"`
	StudyBlocks int                     `json:"study_blocks"`
	Breaks      int                     `json:"breaks"`
	Blocks      []eventResponse         `json:"blocks"`
	Rejected    []service.RejectedBlock `json:"rejected"`
}

func toGenerateResponse(r service.GenerateResult) generateResponse {
	rejected := r.Rejected
	if rejected == nil {
		rejected = []service.RejectedBlock{}
	}
	return generateResponse{
		Start:       r.Start,
		End:         r.End,
		Pillars:     r.Pillars,
		Deleted:     r.Deleted,
		StudyBlocks: r.StudyBlocks,
		Breaks:      r.Breaks,
		Blocks:      toEventResponses(r.Blocks),
		Rejected:    rejected,
	}
}
