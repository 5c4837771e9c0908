package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sync_service/internal/cache"
	"sync_service/internal/domain"
	"sync_service/internal/lock"
	"sync_service/internal/middleware"
	"sync_service/internal/proposal"
	"sync_service/internal/service"
	"sync_service/internal/service/mocks"
	"sync_service/internal/testutils"
	"sync_service/pkg/logging"
)

var now = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	userID    uuid.UUID
	store     *testutils.Store
	locker    *lock.LocalLocker
	generator *mocks.MockProposalGenerator
	signer    *mocks.MockStateSigner
	tokens    *mocks.MockTokenSource
	router    chi.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	ts := &testServer{
		userID:    uuid.New(),
		store:     testutils.NewStore(),
		locker:    lock.NewLocalLocker(),
		generator: mocks.NewMockProposalGenerator(ctrl),
		signer:    mocks.NewMockStateSigner(ctrl),
		tokens:    mocks.NewMockTokenSource(ctrl),
	}
	publisher := mocks.NewMockEventPublisher(ctrl)
	publisher.EXPECT().SendSyncCompleted(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.NewSyncService(service.Deps{
		Repo:       ts.store,
		Courses:    mocks.NewMockCourseProvider(ctrl),
		Calendar:   mocks.NewMockCalendarProvider(ctrl),
		Authorizer: mocks.NewMockCalendarAuthorizer(ctrl),
		Tokens:     ts.tokens,
		Generator:  ts.generator,
		Publisher:  publisher,
		Signer:     ts.signer,
		Locker:     ts.locker,
		Cache:      cache.NewMemoryCache(),
	}, service.Settings{
		MaxAttempts: 1,
		Location:    time.UTC,
		Now:         func() time.Time { return now },
	}, logging.NewNop())

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logging.NewNop()))
	r.Route("/api/v1", func(r chi.Router) {
		NewHandler(svc).RegisterRoutes(r, middleware.RequireUser)
	})
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("X-User-Id", ts.userID.String())
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"BadRequest", ErrBadRequest, http.StatusBadRequest},
		{"InvalidArgument", fmt.Errorf("%w: x", service.ErrInvalidArgument), http.StatusBadRequest},
		{"NotFound", service.ErrNotFound, http.StatusNotFound},
		{"SyncInProgress", service.ErrSyncInProgress, http.StatusConflict},
		{"NotConnected", fmt.Errorf("wrapped: %w", service.ErrNotConnected), http.StatusPreconditionFailed},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, mapErr(tc.err))
		})
	}
}

func TestRoutes_RequireUser(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncCourses_Handler(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/sync/courses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.SyncResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SyncStatusSuccess, res.Status)

	rec = ts.do(t, http.MethodPost, "/api/v1/sync/courses?force=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	release, ok, err := ts.locker.TryLock(context.Background(), "sync:"+ts.userID.String(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release(context.Background())

	rec = ts.do(t, http.MethodPost, "/api/v1/sync/courses?force=true", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	res = decode[domain.SyncResult](t, rec)
	assert.False(t, res.Success)
}

func TestSyncStatusAndAutoSync_Handler(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/sync/auto", `{"enabled":true,"interval_hours":500}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/sync/auto", `{"enabled":true,"interval_hours":12}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[map[string]any](t, rec)
	assert.Equal(t, true, state["auto_sync_enabled"])
	assert.Equal(t, float64(12), state["sync_interval_hours"])
	assert.Nil(t, state["last_course_sync_at"])
}

func TestSchedule_Handler(t *testing.T) {
	ts := newTestServer(t)
	ts.generator.EXPECT().Propose(gomock.Any(), gomock.Any()).Return([]proposal.Block{
		{Type: "STUDY_BLOCK", Title: "Focus", StartTime: "2025-09-02T09:00:00Z", EndTime: "2025-09-02T10:00:00Z"},
		{Type: "NAP", StartTime: "2025-09-02T11:00:00Z", EndTime: "2025-09-02T12:00:00Z"},
	}, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/schedule/generate", `{"regenerate":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	gen := decode[generateResponse](t, rec)
	require.Len(t, gen.Blocks, 1)
	assert.Len(t, gen.Rejected, 1)
	blockID := gen.Blocks[0].ID

	rec = ts.do(t, http.MethodPut, "/api/v1/schedule/blocks/"+blockID.String()+"/lock", `{"locked":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[eventResponse](t, rec).IsLocked)

	rec = ts.do(t, http.MethodPut, "/api/v1/schedule/blocks/not-a-uuid/lock", `{"locked":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/schedule/blocks/"+uuid.NewString()+"/lock", `{"locked":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/schedule/blocks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[map[string]int](t, rec)["deleted"])

	rec = ts.do(t, http.MethodGet, "/api/v1/schedule/blocks?start=2025-09-01T00:00:00Z&end=2025-09-03T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	blocks := decode[map[string][]eventResponse](t, rec)["blocks"]
	require.Len(t, blocks, 1)
	assert.Equal(t, "SYSTEM_GENERATED", blocks[0].Source)

	rec = ts.do(t, http.MethodGet, "/api/v1/schedule/blocks?start=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignments_Handler(t *testing.T) {
	ts := newTestServer(t)
	due := now.Add(48 * time.Hour)
	a, err := ts.store.UpsertAssignment(context.Background(), domain.Assignment{
		UserID:               ts.userID,
		ProviderAssignmentID: "1",
		CourseID:             "101",
		Title:                "Essay",
		DueAt:                &due,
		Status:               domain.AssignmentStatusNotStarted,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPut, "/api/v1/assignments/"+a.ID.String()+"/status", `{"status":"done"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/assignments/"+a.ID.String()+"/status", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IN_PROGRESS", decode[assignmentResponse](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/assignments?status=in_progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]assignmentResponse](t, rec)["assignments"]
	require.Len(t, list, 1)
	assert.Equal(t, "Essay", list[0].Title)

	rec = ts.do(t, http.MethodGet, "/api/v1/assignments?status=late", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeetings_Handler(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.store.UpsertCourse(context.Background(), domain.TrackedCourse{
		UserID: ts.userID, ProviderCourseID: "101", Code: "CS101", IsTracked: true,
	})
	require.NoError(t, err)

	body := `{"days_of_week":["Tue","thursday"],"start_time":"10:00","end_time":"11:15",` +
		`"term_start":"2025-08-18","term_end":"2025-12-01"}`
	rec := ts.do(t, http.MethodPost, "/api/v1/courses/101/meetings", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.Equal(t, float64(30), res["instances"])
	assert.Equal(t, float64(30), res["upserted"])

	rec = ts.do(t, http.MethodPost, "/api/v1/courses/101/meetings", strings.Replace(body, "Tue", "Funday", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/courses/999/meetings", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/courses/101/track", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestConnections_Handler(t *testing.T) {
	ts := newTestServer(t)

	ts.signer.EXPECT().Verify("bad", "google").Return(uuid.Nil, errors.New("expired"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/connections/calendar/callback?state=bad&code=c", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/connections/myspace", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.tokens.EXPECT().RemoveTokens(gomock.Any(), ts.userID, domain.ProviderCanvas).Return(service.ErrNotConnected)
	rec = ts.do(t, http.MethodDelete, "/api/v1/connections/canvas", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/connections/course", `{"base_url":"ftp://x","access_token":"t"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/connections/course", `{"unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
