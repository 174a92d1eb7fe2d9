// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package store

import (
	"sync"
	"time"
)

// Resolution is the precision of assigned timestamps. Postgres and DuckDB
// store microseconds, so every backend uses the same.
const Resolution = time.Microsecond

// Clock hands out strictly increasing UTC timestamps. When the wall clock
// stalls or steps backwards, the next timestamp is the previous one plus
// Resolution.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewClock returns a Clock reading now. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Observe raises the floor so later timestamps sort after t. Stores call it
// on open with the newest persisted timestamp.
func (c *Clock) Observe(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.last) {
		c.last = t.UTC().Truncate(Resolution)
	}
}

// Next returns a timestamp strictly after every previous one.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(Resolution)
	if !t.After(c.last) {
		t = c.last.Add(Resolution)
	}
	c.last = t
	return t
}
