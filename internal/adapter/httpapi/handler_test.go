package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pa-agent/internal/application/port/input"
	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/logger"
	"pa-agent/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForms struct {
	mu   sync.Mutex
	got  []input.SubmitRequest
	err  error
	next string
}

func (f *fakeForms) Submit(_ context.Context, req input.SubmitRequest) (*input.SubmitAccepted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return &input.SubmitAccepted{RequestID: f.next}, nil
}

type fakeTracker struct {
	started   []input.TrackRequest
	startErr  error
	live      map[string]entity.TrackingRequest
	cancelled []string
}

func (f *fakeTracker) Start(_ context.Context, req input.TrackRequest) (*input.TrackStarted, error) {
	f.started = append(f.started, req)
	if f.startErr != nil {
		return nil, f.startErr
	}
	id := req.TrackingID
	if id == "" {
		id = "DEFAULT"
	}
	interval := req.Interval
	if interval == 0 {
		interval = 10 * time.Second
	}
	return &input.TrackStarted{RequestID: "trk1", TrackingID: id, Interval: interval}, nil
}

func (f *fakeTracker) Status(id string) (entity.TrackingRequest, bool) {
	r, ok := f.live[id]
	return r, ok
}

func (f *fakeTracker) Active() []entity.TrackingRequest {
	out := make([]entity.TrackingRequest, 0, len(f.live))
	for _, r := range f.live {
		out = append(out, r)
	}
	return out
}

func (f *fakeTracker) Cancel(id string) error {
	if _, ok := f.live[id]; !ok {
		return entity.ErrRequestNotFound
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fixture struct {
	forms   *fakeForms
	tracker *fakeTracker
	ledger  *testutil.MemoryLedger
	server  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		forms:   &fakeForms{next: "abc12345"},
		tracker: &fakeTracker{live: map[string]entity.TrackingRequest{}},
		ledger:  testutil.NewMemoryLedger(),
	}
	h := NewHandler(f.forms, f.tracker, f.ledger, logger.NewNop(), "PA Form Filling Agent")
	f.server = NewRouter(h, RouterConfig{})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture()

	rec, body := f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PA Form Filling Agent", body["message"])

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec, body = f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "PA Form Filling Agent", body["service"])
	}
}

func TestSubmitForm_Accepted(t *testing.T) {
	f := newFixture()

	rec, body := f.do(t, http.MethodPost, "/api/v1/form/submit-form",
		`{"account_id":"A-1","custom_data":{"Member":{"First_Name":"Sue"}}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, "abc12345", data["request_id"])

	require.Len(t, f.forms.got, 1)
	assert.Equal(t, "A-1", f.forms.got[0].AccountID)
	assert.Equal(t, map[string]any{"First_Name": "Sue"}, f.forms.got[0].CustomData["Member"])
}

func TestSubmitForm_EmptyBody(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(t, http.MethodPost, "/api/v1/form/submit-form", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.forms.got, 1)
	assert.Empty(t, f.forms.got[0].AccountID)
	assert.Nil(t, f.forms.got[0].CustomData)
}

func TestSubmitForm_ConfigError(t *testing.T) {
	f := newFixture()
	f.forms.err = &entity.ConfigError{Missing: []string{"HUMANA_LINK", "HUMANA_PASSWORD"}}

	rec, body := f.do(t, http.MethodPost, "/api/v1/form/submit-form", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.True(t, strings.HasPrefix(body["error"].(string), "Configuration error: "))
	assert.Equal(t, []any{"HUMANA_LINK", "HUMANA_PASSWORD"}, body["missing"])
}

func TestSubmitForm_InternalError(t *testing.T) {
	f := newFixture()
	f.forms.err = errors.New("ledger write failed: disk full")

	rec, body := f.do(t, http.MethodPost, "/api/v1/form/submit-form", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["error"])
}

func TestSubmitForm_MalformedJSON(t *testing.T) {
	f := newFixture()

	rec, body := f.do(t, http.MethodPost, "/api/v1/form/submit-form", `{"account_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid request body")
	assert.Empty(t, f.forms.got)
}

func TestSubmitForm_ExtraFieldsIgnored(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(t, http.MethodPost, "/api/v1/form/submit-form",
		`{"account_id":"A-1","client_version":"2.3","priority":"high"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.forms.got, 1)
	assert.Equal(t, "A-1", f.forms.got[0].AccountID)
}

func TestStartTracking(t *testing.T) {
	f := newFixture()

	rec, body := f.do(t, http.MethodPost, "/api/v1/tracker/start-tracking",
		`{"custom_tracking_id":"PA-77","custom_interval":30}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tracker Agent has started", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "tracking", data["status"])
	assert.Equal(t, "PA-77", data["tracking_id"])
	assert.Equal(t, float64(30), data["interval_seconds"])
	assert.Equal(t, "trk1", data["request_id"])

	require.Len(t, f.tracker.started, 1)
	assert.Equal(t, 30*time.Second, f.tracker.started[0].Interval)
}

func TestStartTracking_Defaults(t *testing.T) {
	f := newFixture()

	rec, body := f.do(t, http.MethodPost, "/api/v1/tracker/start-tracking", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "DEFAULT", data["tracking_id"])
	assert.Equal(t, float64(10), data["interval_seconds"])
	assert.Equal(t, time.Duration(0), f.tracker.started[0].Interval)
}

func TestStartTracking_NegativeInterval(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(t, http.MethodPost, "/api/v1/tracker/start-tracking", `{"custom_interval":-5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.tracker.started)
}

func TestStartTracking_MissingTrackingID(t *testing.T) {
	f := newFixture()
	f.tracker.startErr = &entity.ConfigError{Missing: []string{"HUMANA_ID_FOR_TRACKING"}}

	rec, body := f.do(t, http.MethodPost, "/api/v1/tracker/start-tracking", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "HUMANA_ID_FOR_TRACKING")
}

func TestTrackingStatus(t *testing.T) {
	f := newFixture()
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f.tracker.live["trk1"] = entity.TrackingRequest{
		RequestID:  "trk1",
		TrackingID: "PA-77",
		Interval:   15 * time.Second,
		Status:     entity.TaskStatusRunning,
		StartedAt:  started,
	}

	rec, body := f.do(t, http.MethodGet, "/api/v1/tracker/status/trk1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "PA-77", body["tracking_id"])
	assert.Equal(t, float64(15), body["interval_seconds"])
	assert.NotContains(t, body, "finished_at")
}

func TestTrackingStatus_NotFound(t *testing.T) {
	f := newFixture()

	rec, body := f.do(t, http.MethodGet, "/api/v1/tracker/status/nope", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_found", body["status"])
	assert.Equal(t, "Request ID not found or task completed", body["message"])
}

func TestActiveTasks(t *testing.T) {
	f := newFixture()
	f.tracker.live["a"] = entity.TrackingRequest{RequestID: "a", TrackingID: "1", Status: entity.TaskStatusRunning}
	f.tracker.live["b"] = entity.TrackingRequest{RequestID: "b", TrackingID: "2", Status: entity.TaskStatusPending}

	rec, body := f.do(t, http.MethodGet, "/api/v1/tracker/active-tasks", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	tasks := body["active_tasks"].(map[string]any)
	assert.Contains(t, tasks, "a")
	assert.Contains(t, tasks, "b")
	assert.Equal(t, "pending", tasks["b"].(map[string]any)["status"])
}

func TestActiveTasks_Empty(t *testing.T) {
	f := newFixture()

	_, body := f.do(t, http.MethodGet, "/api/v1/tracker/active-tasks", "")

	assert.Equal(t, float64(0), body["count"])
	assert.Empty(t, body["active_tasks"])
}

func TestCancelTracking(t *testing.T) {
	f := newFixture()
	f.tracker.live["trk1"] = entity.TrackingRequest{RequestID: "trk1", Status: entity.TaskStatusRunning}

	rec, body := f.do(t, http.MethodPost, "/api/v1/tracker/cancel/trk1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"trk1"}, f.tracker.cancelled)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/tracker/cancel/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLedger(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.ledger.Create("abc12345"))
	require.NoError(t, f.ledger.Append("abc12345", "Request received", "account: default"))
	require.NoError(t, f.ledger.Append("abc12345", "Validating configuration", ""))

	rec, body := f.do(t, http.MethodGet, "/api/v1/requests/abc12345/ledger", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc12345", body["request_id"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "Request received", first["action"])
	assert.Equal(t, "account: default", first["detail"])
	assert.Len(t, first["timestamp"], len("2006-01-02 15:04:05"))
}

func TestRequestLedger_Unknown(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(t, http.MethodGet, "/api/v1/requests/ghost/ledger", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AccessLogEnabled(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.forms, f.tracker, f.ledger, logger.NewNop(), "svc")
	srv := NewRouter(h, RouterConfig{AccessLog: true, AccessLogJSON: true})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
