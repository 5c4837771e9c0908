package handler

import (
	"fmt"
	"net/http"
	"strings"

	"sync_service/internal/domain"
)

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := domain.AssignmentFilter{
		UserID:   userID,
		CourseID: r.URL.Query().Get("course_id"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.AssignmentStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	dueAfter, err := parseTimeQuery(r, "due_after")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !dueAfter.IsZero() {
		filter.DueAfter = &dueAfter
	}
	dueBefore, err := parseTimeQuery(r, "due_before")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !dueBefore.IsZero() {
		filter.DueBefore = &dueBefore
	}

	assignments, err := h.svc.ListAssignments(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	assignmentID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, ok := domain.ToAssignmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !ok {
		writeError(w, r, fmt.Errorf("%w: unknown status %q", ErrBadRequest, req.Status))
		return
	}

	a, err := h.svc.UpdateAssignmentStatus(r.Context(), userID, assignmentID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(*a))
}
