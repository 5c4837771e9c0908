package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sync_service/internal/domain"
	"sync_service/internal/recurrence"
)

func (h *Handler) ListAvailableCourses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	courses, err := h.svc.ListAvailableCourses(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

type trackRequest struct {
	CourseIDs []string `json:"course_ids"`
}

func (h *Handler) TrackCourses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req trackRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.TrackCourses(r.Context(), userID, req.CourseIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tracked := make([]courseResponse, 0, len(res.Tracked))
	for _, c := range res.Tracked {
		tracked = append(tracked, toCourseResponse(c))
	}
	unknown := res.Unknown
	if unknown == nil {
		unknown = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracked": tracked, "unknown": unknown})
}

func (h *Handler) UntrackCourse(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.UntrackCourse(r.Context(), userID, chi.URLParam(r, "courseId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meetingRequest struct {
	DaysOfWeek []string `json:"days_of_week"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Location   string   `json:"location"`
	TermStart  string   `json:"term_start"`
	TermEnd    string   `json:"term_end"`
}

func (m meetingRequest) toDomain() (domain.MeetingTime, error) {
	meeting := domain.MeetingTime{
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Location:  strings.TrimSpace(m.Location),
	}
	for _, raw := range m.DaysOfWeek {
		d, err := recurrence.ParseWeekday(raw)
		if err != nil {
			return meeting, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		meeting.DaysOfWeek = append(meeting.DaysOfWeek, d)
	}
	var err error
	if meeting.TermStart, err = time.Parse(time.DateOnly, m.TermStart); err != nil {
		return meeting, fmt.Errorf("%w: term_start must be YYYY-MM-DD", ErrBadRequest)
	}
	if meeting.TermEnd, err = time.Parse(time.DateOnly, m.TermEnd); err != nil {
		return meeting, fmt.Errorf("%w: term_end must be YYYY-MM-DD", ErrBadRequest)
	}
	return meeting, nil
}

func (h *Handler) AddMeetingTime(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req meetingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	meeting, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.AddMeetingTime(r.Context(), userID, chi.URLParam(r, "courseId"), meeting)
	if err != nil {
		writeError(w, r, err)
		return
	}
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course":    toCourseResponse(res.Course),
		"instances": res.Instances,
		"upserted":  res.Upserted,
		"errors":    errs,
	})
}
