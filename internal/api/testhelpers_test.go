// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/models"
	"github.com/tomtom215/reportdesk/internal/progress"
	"github.com/tomtom215/reportdesk/internal/store"
)

// Tokens understood by fakeVerifier.
const (
	tokenAlice       = "token-alice"
	tokenBob         = "token-bob"
	tokenExpired     = "token-expired"
	tokenUnavailable = "token-unavailable"
)

// fakeVerifier maps fixed tokens to subjects.
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*auth.Subject, error) {
	switch token {
	case tokenAlice:
		return &auth.Subject{ID: "alice", AuthMethod: auth.AuthModeJWT}, nil
	case tokenBob:
		return &auth.Subject{ID: "bob", AuthMethod: auth.AuthModeJWT}, nil
	case tokenExpired:
		return nil, auth.ErrExpiredCredentials
	case tokenUnavailable:
		return nil, auth.ErrVerifierUnavailable
	default:
		return nil, auth.ErrInvalidCredentials
	}
}

func (fakeVerifier) Mode() auth.AuthMode { return auth.AuthModeJWT }

// failingStore fails every operation.
type failingStore struct {
	inserts int
}

var errStoreDown = errors.New("store down")

func (s *failingStore) Insert(context.Context, string, models.Fields) (*models.Report, error) {
	s.inserts++
	return nil, errStoreDown
}

func (s *failingStore) List(context.Context, string, store.ListOptions) ([]models.Report, error) {
	return nil, errStoreDown
}

func (s *failingStore) Get(context.Context, string, string) (*models.Report, error) {
	return nil, errStoreDown
}

func (s *failingStore) Stats(context.Context, string, time.Time, time.Time) (*models.ReportStats, error) {
	return nil, errStoreDown
}

func (s *failingStore) Ping(context.Context) error { return errStoreDown }
func (s *failingStore) Close() error               { return nil }
func (s *failingStore) Backend() string            { return "failing" }

// recordingPublisher captures report_saved events.
type recordingPublisher struct {
	events []models.ReportSavedEvent
	err    error
}

func (p *recordingPublisher) PublishReportSaved(_ context.Context, event models.ReportSavedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          "jwt",
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
		Store: config.StoreConfig{Backend: store.BackendBadger, ListLimit: 100},
	}
}

func newBadgerStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type testServer struct {
	handler  *Handler
	registry *progress.Registry
	mux      http.Handler
}

// newTestServer builds the full router around st. A nil st means a fresh
// in-memory Badger store.
func newTestServer(t *testing.T, st store.Store, cfg *config.Config) *testServer {
	t.Helper()
	if st == nil {
		st = newBadgerStore(t)
	}
	if cfg == nil {
		cfg = testConfig()
	}
	registry := progress.NewRegistry(progress.RegistryConfig{}, nil)
	h := NewHandler(cfg, st, registry, nil)
	router := NewRouter(h, NewAuthMiddleware(fakeVerifier{}), NewChiMiddleware(NewChiMiddlewareConfig(&cfg.Security)))
	return &testServer{handler: h, registry: registry, mux: router.SetupChi()}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

// assertError checks status, envelope shape, and error code.
func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) models.APIResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "error" {
		t.Errorf("status field = %q, want error", resp.Status)
	}
	if resp.Data != nil {
		t.Errorf("data = %v, want null", resp.Data)
	}
	if resp.Error == nil || resp.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", resp.Error, code)
	}
	if !strings.Contains(rec.Body.String(), `"data":null`) {
		t.Errorf("body %s does not carry data:null", rec.Body.String())
	}
	return resp
}

// dataAs re-decodes an envelope's data into dst.
func dataAs(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(raw.Data, dst); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, raw.Data)
	}
}
