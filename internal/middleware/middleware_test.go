package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"sync_service/pkg/ctxdata"
	"sync_service/pkg/logging"
)

func TestLoggingMiddleware_TraceID(t *testing.T) {
	var seen string
	h := NewLoggingMiddleware(logging.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ctxdata.GetTraceID(r.Context())
		_, ok := logging.GetFromContext(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-Id"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Trace-Id", "from-gateway")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "from-gateway", seen)
}

func TestRequireUser(t *testing.T) {
	userID := uuid.New().String()
	h := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ctxdata.GetUserID(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID, id)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "42", http.StatusUnauthorized},
		{"valid", userID, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("X-User-Id", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
