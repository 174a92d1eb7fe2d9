// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/models"
)

func TestClock_StrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return fixed })

	a := c.Next()
	b := c.Next()
	if !b.After(a) {
		t.Fatalf("Next() = %v after %v, want strictly later", b, a)
	}
	if b.Sub(a) != Resolution {
		t.Errorf("step = %v, want %v", b.Sub(a), Resolution)
	}
}

func TestClock_BackwardsStep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return now })
	first := c.Next()

	now = now.Add(-time.Hour)
	if second := c.Next(); !second.After(first) {
		t.Errorf("Next() after clock stepped back = %v, want after %v", second, first)
	}
}

func TestClock_Observe(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return now })
	floor := now.Add(time.Minute)
	c.Observe(floor)
	if got := c.Next(); !got.After(floor) {
		t.Errorf("Next() = %v, want after observed %v", got, floor)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		want    string
		wantErr bool
	}{
		{"badger memory", config.StoreConfig{Backend: "badger", Path: ":memory:"}, BackendBadger, false},
		{"duckdb memory", config.StoreConfig{Backend: "duckdb", Path: ":memory:"}, BackendDuckDB, false},
		{"postgres without dsn", config.StoreConfig{Backend: "postgres"}, "", true},
		{"unknown", config.StoreConfig{Backend: "mongo"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, &tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if s.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", s.Backend(), tt.want)
			}
		})
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "reports")

	s, err := OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	first, err := s.Insert(ctx, "alice", models.Fields{"a": json.RawMessage(`1`)})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	second, err := s.Insert(ctx, "alice", models.Fields{"b": json.RawMessage(`2`)})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Errorf("CreatedAt after reopen = %v, want after %v", second.CreatedAt, first.CreatedAt)
	}
	list, err := s.List(ctx, "alice", ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("List() = %v", list)
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	s, err := OpenBadger("")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	ctx := context.Background()
	if _, err := s.Insert(ctx, "alice", models.Fields{"a": json.RawMessage(`1`)}); !errors.Is(err, ErrClosed) {
		t.Errorf("Insert() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close error = %v, want ErrClosed", err)
	}
}

func TestDuckDBStore_FileBacked(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "reports.duckdb")

	s, err := OpenDuckDB(ctx, path)
	if err != nil {
		t.Fatalf("OpenDuckDB() error = %v", err)
	}
	r, err := s.Insert(ctx, "alice", models.Fields{"nested": json.RawMessage(`{"k":[1,2,3]}`)})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenDuckDB(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "alice", r.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Fields["nested"]) != `{"k":[1,2,3]}` {
		t.Errorf("nested = %s", got.Fields["nested"])
	}
}
