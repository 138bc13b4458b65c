// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/models"
	intsync "github.com/tomtom215/fitsync/internal/sync"
)

type fakeController struct {
	mu         sync.Mutex
	status     models.SyncStatus
	statusErr  error
	triggerErr error
	triggered  [][]models.Stream
}

func (f *fakeController) Status(context.Context) (models.SyncStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeController) TriggerSync(streams []models.Stream) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggered = append(f.triggered, streams)
	return nil
}

func (f *fakeController) calls() [][]models.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.Stream(nil), f.triggered...)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// envelope mirrors models.APIResponse with a raw data field.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func newTestRouter(ctrl SyncController, db Pinger) http.Handler {
	return NewRouter(NewHandler(ctrl, db, "test"), RouterConfig{})
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	t.Parallel()

	finished := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		db         Pinger
		wantCode   int
		wantStatus string
	}{
		{"healthy", fakePinger{}, http.StatusOK, "healthy"},
		{"ping fails", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "degraded"},
		{"no database", nil, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := &fakeController{status: models.SyncStatus{Running: true, LastFinished: &finished}}
			rec, env := do(t, newTestRouter(ctrl, tt.db), http.MethodGet, "/health", "")

			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var health models.HealthStatus
			if err := json.Unmarshal(env.Data, &health); err != nil {
				t.Fatalf("decode health: %v", err)
			}
			if health.Status != tt.wantStatus {
				t.Errorf("health.Status = %q, want %q", health.Status, tt.wantStatus)
			}
			if !health.SyncRunning || health.LastSyncTime == nil || !health.LastSyncTime.Equal(finished) {
				t.Errorf("sync fields = running %v last %v", health.SyncRunning, health.LastSyncTime)
			}
			if health.Version != "test" {
				t.Errorf("Version = %q", health.Version)
			}
		})
	}
}

func TestSyncStatus(t *testing.T) {
	t.Parallel()

	maxDate := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	ctrl := &fakeController{status: models.SyncStatus{
		LastRunID: "run-1",
		Retries:   2,
		Streams: []models.StreamStats{
			{Stream: models.StreamSteps, Dates: 3, Inserted: 10},
		},
		Tables: []models.TableStatus{
			{Table: models.TableStepsIntraday, Rows: 10, MaxDate: &maxDate},
		},
	}}

	rec, env := do(t, newTestRouter(ctrl, fakePinger{}), http.MethodGet, "/api/v1/sync/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" || env.Metadata.RequestID == "" {
		t.Errorf("envelope = %+v, want success with request id", env)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}

	var got models.SyncStatus
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got.LastRunID != "run-1" || got.Retries != 2 || len(got.Streams) != 1 || len(got.Tables) != 1 {
		t.Errorf("status = %+v", got)
	}
	if got.Tables[0].MaxDate == nil || !got.Tables[0].MaxDate.Equal(maxDate) {
		t.Errorf("MaxDate = %v, want %v", got.Tables[0].MaxDate, maxDate)
	}
}

func TestSyncStatusError(t *testing.T) {
	t.Parallel()

	ctrl := &fakeController{statusErr: errors.New("db gone")}
	rec, env := do(t, newTestRouter(ctrl, fakePinger{}), http.MethodGet, "/api/v1/sync/status", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != CodeSyncStatus {
		t.Errorf("error = %+v, want %s", env.Error, CodeSyncStatus)
	}
	if strings.Contains(rec.Body.String(), "db gone") {
		t.Error("internal error text leaked into response")
	}
}

func TestSyncTrigger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		triggerErr  error
		wantCode    int
		wantErrCode string
		wantStreams []models.Stream
	}{
		{name: "no body means configured streams", wantCode: http.StatusAccepted},
		{name: "empty object", body: `{}`, wantCode: http.StatusAccepted},
		{
			name:        "subset in pathway order",
			body:        `{"streams":["sleep","steps","sleep"]}`,
			wantCode:    http.StatusAccepted,
			wantStreams: []models.Stream{models.StreamSteps, models.StreamSleep},
		},
		{name: "unknown stream", body: `{"streams":["weight"]}`, wantCode: http.StatusBadRequest, wantErrCode: CodeValidation},
		{
			name:        "too many streams",
			body:        `{"streams":["steps","steps","steps","steps","steps"]}`,
			wantCode:    http.StatusBadRequest,
			wantErrCode: CodeValidation,
		},
		{name: "unknown field", body: `{"stream":"steps"}`, wantCode: http.StatusBadRequest, wantErrCode: CodeInvalidBody},
		{name: "not json", body: `steps`, wantCode: http.StatusBadRequest, wantErrCode: CodeInvalidBody},
		{name: "trailing data", body: `{} {}`, wantCode: http.StatusBadRequest, wantErrCode: CodeInvalidBody},
		{name: "in progress", triggerErr: intsync.ErrSyncInProgress, wantCode: http.StatusConflict, wantErrCode: CodeSyncInProgress},
		{name: "manager stopped", triggerErr: intsync.ErrNotRunning, wantCode: http.StatusServiceUnavailable, wantErrCode: CodeSyncNotRunning},
		{name: "other failure", triggerErr: errors.New("boom"), wantCode: http.StatusInternalServerError, wantErrCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := &fakeController{triggerErr: tt.triggerErr}
			rec, env := do(t, newTestRouter(ctrl, fakePinger{}), http.MethodPost, "/api/v1/sync/trigger", tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d, body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErrCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantErrCode {
					t.Errorf("error = %+v, want code %s", env.Error, tt.wantErrCode)
				}
				if len(ctrl.calls()) != 0 {
					t.Error("TriggerSync should not have been recorded")
				}
				return
			}

			calls := ctrl.calls()
			if len(calls) != 1 {
				t.Fatalf("TriggerSync calls = %d, want 1", len(calls))
			}
			if len(calls[0]) != len(tt.wantStreams) {
				t.Fatalf("streams = %v, want %v", calls[0], tt.wantStreams)
			}
			for i := range calls[0] {
				if calls[0][i] != tt.wantStreams[i] {
					t.Errorf("streams[%d] = %q, want %q", i, calls[0][i], tt.wantStreams[i])
				}
			}

			var resp models.TriggerResponse
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				t.Fatalf("decode trigger response: %v", err)
			}
			if !resp.Accepted {
				t.Error("Accepted = false")
			}
		})
	}
}

func TestSyncTriggerValidationDetails(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newTestRouter(&fakeController{}, fakePinger{}), http.MethodPost,
		"/api/v1/sync/trigger", `{"streams":["steps","weight"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d", rec.Code)
	}
	if env.Error == nil || env.Error.Details["field"] != "streams[1]" {
		t.Errorf("error details = %+v, want field streams[1]", env.Error)
	}
}

func TestNilSyncController(t *testing.T) {
	t.Parallel()

	h := newTestRouter(nil, fakePinger{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/sync/status"},
		{http.MethodPost, "/api/v1/sync/trigger"},
	} {
		rec, env := do(t, h, tc.method, tc.path, "")
		if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != CodeSyncUnavailable {
			t.Errorf("%s %s = %d %+v", tc.method, tc.path, rec.Code, env.Error)
		}
	}

	rec, _ := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health without sync = %d, want 200", rec.Code)
	}
}
