package handler

import (
	"net/http"
	"time"

	"sync_service/internal/service"
)

type generateRequest struct {
	Start             *time.Time `json:"start"`
	End               *time.Time `json:"end"`
	Regenerate        bool       `json:"regenerate"`
	PrioritizeCourses []string   `json:"prioritize_courses"`
}

func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body generateRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	req := service.GenerateRequest{
		Regenerate:           body.Regenerate,
		PrioritizedCourseIDs: body.PrioritizeCourses,
	}
	if body.Start != nil {
		req.Start = *body.Start
	}
	if body.End != nil {
		req.End = *body.End
	}

	res, err := h.svc.GenerateSchedule(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGenerateResponse(res))
}

func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := parseRangeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	blocks, err := h.svc.ListGeneratedBlocks(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": toEventResponses(blocks)})
}

func (h *Handler) ClearBlocks(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := parseRangeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	deleted, err := h.svc.ClearGeneratedBlocks(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (h *Handler) PushBlocks(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := parseRangeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.PushGeneratedBlocks(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"created": res.Created,
		"updated": res.Updated,
		"failed":  res.Failed,
		"errors":  res.Errors,
	})
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

func (h *Handler) SetBlockLocked(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	eventID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req lockRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.svc.SetBlockLocked(r.Context(), userID, eventID, req.Locked)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*ev))
}
