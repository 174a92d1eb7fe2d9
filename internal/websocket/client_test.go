// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/tomtom215/reportdesk/internal/models"
)

func newWSServer(t *testing.T, hub *Hub, origins []string) *httptest.Server {
	t.Helper()
	upgrader := NewUpgrader(origins)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = ServeWS(hub, upgrader, w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user, origin string) (*gorilla.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return gorilla.DefaultDialer.Dial(url, header)
}

func TestServeWS_DeliversOwnedMessages(t *testing.T) {
	hub := setupHub(t)
	srv := newWSServer(t, hub, []string{"*"})

	conn, _, err := dial(t, srv, "alice", "http://localhost")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.BroadcastReportSaved(models.ReportSavedEvent{ReportID: "r1", UserID: "alice", FieldCount: 1})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var got struct {
		Type string                  `json:"type"`
		Data models.ReportSavedEvent `json:"data"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.Type != MessageTypeReportSaved || got.Data.ReportID != "r1" {
		t.Errorf("got %+v", got)
	}
}

func TestServeWS_PingPong(t *testing.T) {
	hub := setupHub(t)
	srv := newWSServer(t, hub, []string{"*"})

	conn, _, err := dial(t, srv, "alice", "http://localhost")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var got struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", got.Type)
	}
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"wildcard", []string{"*"}, "http://a.example", true},
		{"exact match", []string{"http://a.example"}, "http://a.example", true},
		{"not listed", []string{"http://a.example"}, "http://b.example", false},
		{"missing origin", []string{"http://a.example"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := NewUpgrader(tt.allowed).CheckOrigin(r); got != tt.want {
				t.Errorf("CheckOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServeWS_RejectedOrigin(t *testing.T) {
	hub := setupHub(t)
	srv := newWSServer(t, hub, []string{"http://allowed.example"})

	_, resp, err := dial(t, srv, "alice", "http://evil.example")
	if err == nil {
		t.Fatal("dial succeeded for a rejected origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}

func TestServeWS_NoOriginAccepted(t *testing.T) {
	hub := setupHub(t)
	srv := newWSServer(t, hub, []string{"http://allowed.example"})

	conn, _, err := dial(t, srv, "alice", "")
	if err != nil {
		t.Fatalf("dial without Origin: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })
}

func TestServeWS_HubStopped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = hub.RunWithContext(ctx)

	errCh := make(chan error, 1)
	upgrader := NewUpgrader([]string{"*"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errCh <- ServeWS(hub, upgrader, w, r, "alice")
	}))
	defer srv.Close()

	conn, _, err := dial(t, srv, "alice", "http://localhost")
	if err == nil {
		defer conn.Close()
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, errHubStopped) {
			t.Errorf("ServeWS() error = %v, want errHubStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ServeWS blocked on a stopped hub")
	}
}
