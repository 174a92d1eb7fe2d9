// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"testing"
	"time"
)

func TestAlertQueue_AutoDismiss(t *testing.T) {
	clock := &fakeClock{now: t0}
	q := NewAlertQueue(0, clock.Now)

	a := q.Show("Network error", "")
	if a.Type != AlertError {
		t.Errorf("Type = %q, want error by default", a.Type)
	}
	if !a.ExpiresAt.Equal(t0.Add(5 * time.Second)) {
		t.Errorf("ExpiresAt = %v, want 5s after show", a.ExpiresAt)
	}

	if got := q.Active(t0.Add(4999 * time.Millisecond)); len(got) != 1 {
		t.Errorf("Active just before expiry = %d alerts, want 1", len(got))
	}
	if got := q.Active(t0.Add(5 * time.Second)); len(got) != 0 {
		t.Errorf("Active at expiry = %d alerts, want 0", len(got))
	}
}

func TestAlertQueue_DismissAndClear(t *testing.T) {
	clock := &fakeClock{now: t0}
	q := NewAlertQueue(time.Minute, clock.Now)

	first := q.Show("one", AlertInfo)
	second := q.Show("two", AlertWarning)

	active := q.Active(t0)
	if len(active) != 2 || active[0].ID != second.ID {
		t.Fatalf("Active = %+v, want newest first", active)
	}

	if !q.Dismiss(first.ID) {
		t.Error("Dismiss(first) = false")
	}
	if q.Dismiss(first.ID) {
		t.Error("second Dismiss(first) = true")
	}
	if active := q.Active(t0); len(active) != 1 || active[0].ID != second.ID {
		t.Errorf("Active after dismiss = %+v", active)
	}

	q.Show("three", AlertSuccess)
	q.Clear()
	if active := q.Active(t0); len(active) != 0 {
		t.Errorf("Active after Clear = %+v", active)
	}
}

func TestParseAlertType(t *testing.T) {
	tests := []struct {
		in      string
		want    AlertType
		wantErr bool
	}{
		{"", AlertError, false},
		{"info", AlertInfo, false},
		{"success", AlertSuccess, false},
		{"warning", AlertWarning, false},
		{"error", AlertError, false},
		{"fatal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlertType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAlertType(%q) = (%q, %v)", tt.in, got, err)
		}
	}
}
