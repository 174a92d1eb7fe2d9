// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AlertType is the severity styling of an alert.
type AlertType string

const (
	AlertError   AlertType = "error"
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
	AlertWarning AlertType = "warning"
)

// DefaultAlertTTL is how long an alert stays visible.
const DefaultAlertTTL = 5 * time.Second

// ParseAlertType returns AlertError for "", and an error for unknown names.
func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(s) {
	case "":
		return AlertError, nil
	case AlertError, AlertInfo, AlertSuccess, AlertWarning:
		return AlertType(s), nil
	}
	return "", fmt.Errorf("unknown alert type %q", s)
}

// Alert is one banner message.
type Alert struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      AlertType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AlertQueue holds transient alerts. Each alert disappears TTL after it was
// shown or when dismissed. Safe for concurrent use.
type AlertQueue struct {
	mu     sync.Mutex
	alerts []Alert
	ttl    time.Duration
	now    func() time.Time
}

// NewAlertQueue creates a queue. Zero ttl uses DefaultAlertTTL; nil now
// uses time.Now.
func NewAlertQueue(ttl time.Duration, now func() time.Time) *AlertQueue {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	if now == nil {
		now = time.Now
	}
	return &AlertQueue{ttl: ttl, now: now}
}

// Show adds an alert. An empty type means AlertError.
func (q *AlertQueue) Show(message string, typ AlertType) Alert {
	if typ == "" {
		typ = AlertError
	}
	now := q.now()
	a := Alert{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      typ,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(now)
	// Newest first, like inserting a banner above the previous one.
	q.alerts = append([]Alert{a}, q.alerts...)
	return a
}

// Dismiss removes the alert with id and reports whether it was visible.
func (q *AlertQueue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(q.now())
	for i, a := range q.alerts {
		if a.ID == id {
			q.alerts = append(q.alerts[:i], q.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every alert.
func (q *AlertQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.alerts = nil
}

// Active returns the alerts still visible at now, newest first.
func (q *AlertQueue) Active(now time.Time) []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(now)
	out := make([]Alert, len(q.alerts))
	copy(out, q.alerts)
	return out
}

func (q *AlertQueue) pruneLocked(now time.Time) {
	kept := q.alerts[:0]
	for _, a := range q.alerts {
		if now.Before(a.ExpiresAt) {
			kept = append(kept, a)
		}
	}
	q.alerts = kept
}
