package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sync_service/internal/domain"
)

type connectCourseRequest struct {
	BaseURL     string `json:"base_url"`
	AccessToken string `json:"access_token"`
}

func (h *Handler) ConnectCourse(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req connectCourseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.ConnectCourseProvider(r.Context(), userID, req.BaseURL, req.AccessToken); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CalendarAuthURL(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	url, err := h.svc.CalendarAuthURL(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) CalendarCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeErrorJSON(w, http.StatusBadRequest, "authorization denied: "+e)
		return
	}
	userID, err := h.svc.CompleteCalendarAuth(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":  userID.String(),
		"provider": string(domain.ProviderGoogle),
	})
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := domain.ToProvider(chi.URLParam(r, "provider"))
	if !ok {
		writeError(w, r, fmt.Errorf("%w: unknown provider", ErrBadRequest))
		return
	}
	if err := h.svc.Disconnect(r.Context(), userID, p); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
