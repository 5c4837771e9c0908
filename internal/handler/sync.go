package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"sync_service/internal/domain"
	"sync_service/internal/service"
)

func (h *Handler) SyncCourses(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, h.svc.SyncCourses)
}

func (h *Handler) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r, h.svc.SyncCalendar)
}

// runSync reports a pass that ran, failed or not, as 200 with the structured result.
// A pass refused because another holds the lock is a 409 carrying the same result shape.
func (h *Handler) runSync(w http.ResponseWriter, r *http.Request, run func(context.Context, uuid.UUID, bool) (domain.SyncResult, error)) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	force, err := parseBoolQuery(r, "force")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := run(r.Context(), userID, force)
	if errors.Is(err, service.ErrSyncInProgress) {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Counts == nil {
		res.Counts = map[string]int{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.svc.GetSyncStatus(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSyncStateResponse(state))
}

type autoSyncRequest struct {
	Enabled       bool `json:"enabled"`
	IntervalHours int  `json:"interval_hours"`
}

func (h *Handler) SetAutoSync(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req autoSyncRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.svc.SetAutoSync(r.Context(), userID, req.Enabled, req.IntervalHours)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSyncStateResponse(state))
}
