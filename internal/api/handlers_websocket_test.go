// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/tomtom215/reportdesk/internal/models"
	"github.com/tomtom215/reportdesk/internal/progress"
	ws "github.com/tomtom215/reportdesk/internal/websocket"
)

// newLiveServer runs the full router behind a real listener with a running
// hub wired as the progress broadcaster.
func newLiveServer(t *testing.T) (*httptest.Server, *ws.Hub) {
	t.Helper()
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()

	cfg := testConfig()
	registry := progress.NewRegistry(progress.RegistryConfig{}, hub)
	h := NewHandler(cfg, newBadgerStore(t), registry, hub)
	router := NewRouter(h, NewAuthMiddleware(fakeVerifier{}), NewChiMiddleware(NewChiMiddlewareConfig(&cfg.Security)))
	srv := httptest.NewServer(router.SetupChi())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, hub
}

func wsURL(srv *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

func waitForClients(t *testing.T, hub *ws.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
}

func TestWebSocket_BrowserQueryToken(t *testing.T) {
	srv, hub := newLiveServer(t)

	header := http.Header{}
	header.Set("Origin", "https://app.example.com")
	conn, resp, err := gorilla.DefaultDialer.Dial(wsURL(srv, url.Values{WebSocketTokenParam: {tokenAlice}}.Encode()), header)
	if err != nil {
		t.Fatalf("dial: %v (response %v)", err, resp)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/progress", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenAlice)
	created, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", created.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string          `json:"type"`
		Data progress.Update `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != ws.MessageTypeProgress {
		t.Errorf("Type = %q, want progress", msg.Type)
	}
	if msg.Data.OwnerID != "alice" || msg.Data.Model.Counter != "1 of 5" {
		t.Errorf("Data = %+v", msg.Data)
	}
}

func TestWebSocket_HeaderTokenWithoutOrigin(t *testing.T) {
	srv, hub := newLiveServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tokenBob)
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL(srv, ""), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)
}

func TestWebSocket_QueryTokenRejected(t *testing.T) {
	srv, hub := newLiveServer(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"no token", "", ErrCodeUnauthenticated},
		{"invalid token", WebSocketTokenParam + "=nope", ErrCodeInvalidToken},
		{"expired token", WebSocketTokenParam + "=" + tokenExpired, ErrCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			header.Set("Origin", "https://app.example.com")
			_, resp, err := gorilla.DefaultDialer.Dial(wsURL(srv, tt.query), header)
			if err == nil {
				t.Fatal("dial succeeded without a valid token")
			}
			if resp == nil {
				t.Fatalf("no HTTP response: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusForbidden {
				t.Errorf("status = %d, want 403", resp.StatusCode)
			}
			var env models.APIResponse
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}
	if n := hub.GetClientCount(); n != 0 {
		t.Errorf("client count = %d, want 0", n)
	}
}

func TestAuthenticate_QueryTokenOnlyForWebSocket(t *testing.T) {
	s := newTestServer(t, nil, nil)

	q := url.Values{WebSocketTokenParam: {tokenAlice}}.Encode()
	rec := s.do(t, http.MethodGet, "/api/v1/reports?"+q, "", "")
	assertError(t, rec, http.StatusForbidden, ErrCodeUnauthenticated)

	// A plain GET to the websocket path is not an upgrade, so the query
	// token is ignored there too.
	rec = s.do(t, http.MethodGet, "/api/v1/ws?"+q, "", "")
	assertError(t, rec, http.StatusForbidden, ErrCodeUnauthenticated)
}

func TestExtractWebSocketToken(t *testing.T) {
	upgrade := func(r *http.Request) *http.Request {
		r.Header.Set("Connection", "Upgrade")
		r.Header.Set("Upgrade", "websocket")
		return r
	}
	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"header wins", func() *http.Request {
			r := upgrade(httptest.NewRequest(http.MethodGet, "/ws?access_token=q", http.NoBody))
			r.Header.Set("Authorization", "Bearer h")
			return r
		}(), "h"},
		{"query on upgrade", upgrade(httptest.NewRequest(http.MethodGet, "/ws?access_token=q", http.NoBody)), "q"},
		{"query ignored without upgrade", httptest.NewRequest(http.MethodGet, "/ws?access_token=q", http.NoBody), ""},
		{"nothing", upgrade(httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractWebSocketToken(tt.req); got != tt.want {
				t.Errorf("extractWebSocketToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
