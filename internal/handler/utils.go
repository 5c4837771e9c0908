package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sync_service/internal/service"
	"sync_service/pkg/ctxdata"
	"sync_service/pkg/logging"
)

var ErrBadRequest = errors.New("bad request")

// maxBodyBytes bounds request bodies; every payload here is small.
const maxBodyBytes = 1 << 20

func mapErr(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotConnected):
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

// writeError logs server-side failures and hides their text from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := mapErr(err)
	ctx := r.Context()
	if logger, ok := logging.GetFromContext(ctx); ok {
		if statusCode >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", zap.String("path", r.URL.Path), zap.Error(err))
		} else {
			logger.Info(ctx, "request rejected", zap.String("path", r.URL.Path), zap.Error(err))
		}
	}
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		message = http.StatusText(statusCode)
	}
	writeErrorJSON(w, statusCode, message)
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrBadRequest, err)
	}
	return nil
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing user id", ErrBadRequest)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed user id", ErrBadRequest)
	}
	return id, nil
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing path param: %s", ErrBadRequest, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a uuid", ErrBadRequest, name)
	}
	return id, nil
}

func parseBoolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrBadRequest, name)
	}
	return v, nil
}

// parseTimeQuery returns the zero time for an absent parameter.
func parseTimeQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339", ErrBadRequest, name)
	}
	return t, nil
}

func parseRangeQuery(r *http.Request) (time.Time, time.Time, error) {
	start, err := parseTimeQuery(r, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimeQuery(r, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
