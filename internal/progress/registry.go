// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/metrics"
)

// ErrSessionNotFound is returned for an unknown session or one owned by
// another user.
var ErrSessionNotFound = errors.New("progress session not found")

// Broadcaster receives every rendered model of every session.
type Broadcaster interface {
	BroadcastProgress(update Update)
}

// Update is one rendered state change of a registry session.
type Update struct {
	SessionID string       `json:"session_id"`
	OwnerID   string       `json:"owner_id"`
	Model     DisplayModel `json:"model"`
}

// Snapshot is the externally visible state of a registry session.
type Snapshot struct {
	ID        string       `json:"id"`
	Label     string       `json:"label,omitempty"`
	OwnerID   string       `json:"owner_id"`
	Session   Session      `json:"session"`
	Model     DisplayModel `json:"model"`
	Alerts    []Alert      `json:"alerts"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type entry struct {
	mu        sync.Mutex
	id        string
	label     string
	ownerID   string
	tracker   *Tracker
	alerts    *AlertQueue
	createdAt time.Time
	updatedAt time.Time
}

// RegistryConfig tunes session retention.
type RegistryConfig struct {
	// Retention is how long a finished session stays readable.
	Retention time.Duration
	// MaxAge evicts sessions that never finish.
	MaxAge time.Duration
	// SweepInterval is how often Serve evicts.
	SweepInterval time.Duration
	// Stages defaults to DefaultStages.
	Stages []Stage
	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultRegistryConfig returns the production retention settings.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Retention:     10 * time.Minute,
		MaxAge:        time.Hour,
		SweepInterval: time.Minute,
	}
}

// Registry holds server-side tracker sessions keyed by UUID. Each session
// has its own mutex, so one tracker sees a single mutator at a time.
type Registry struct {
	cfg         RegistryConfig
	broadcaster Broadcaster

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewRegistry creates a registry. broadcaster may be nil.
func NewRegistry(cfg RegistryConfig, broadcaster Broadcaster) *Registry {
	def := DefaultRegistryConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if len(cfg.Stages) == 0 {
		cfg.Stages = DefaultStages()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		cfg:         cfg,
		broadcaster: broadcaster,
		sessions:    make(map[string]*entry),
	}
}

// Stages returns the stage table new sessions use.
func (r *Registry) Stages() []Stage {
	out := make([]Stage, len(r.cfg.Stages))
	copy(out, r.cfg.Stages)
	return out
}

// Create starts a new session for ownerID at stage 0.
func (r *Registry) Create(ownerID, label string) Snapshot {
	now := r.cfg.Now()
	e := &entry{
		id:        uuid.NewString(),
		label:     label,
		ownerID:   ownerID,
		alerts:    NewAlertQueue(DefaultAlertTTL, r.cfg.Now),
		createdAt: now,
		updatedAt: now,
	}
	e.tracker = NewTracker(r.cfg.Stages,
		WithClock(r.cfg.Now),
		WithView(ViewFunc(func(m DisplayModel) { r.publish(e, m) })),
	)

	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.tracker.Start() //nolint:errcheck // a new tracker is idle
	metrics.RecordProgressTransition("start")

	r.mu.Lock()
	r.sessions[e.id] = e
	count := len(r.sessions)
	r.mu.Unlock()
	metrics.ProgressSessions.Set(float64(count))

	return e.snapshotLocked()
}

// Get returns the session if ownerID owns it.
func (r *Registry) Get(ownerID, id string) (Snapshot, error) {
	return r.with(ownerID, id, func(*entry) error { return nil })
}

// Advance moves the session to its next stage.
func (r *Registry) Advance(ownerID, id string) (Snapshot, error) {
	return r.with(ownerID, id, func(e *entry) error {
		advanced, err := e.tracker.Advance()
		if err != nil {
			return err
		}
		if advanced {
			metrics.RecordProgressTransition("advance")
		}
		return nil
	})
}

// Complete finishes the session and clears its alerts.
func (r *Registry) Complete(ownerID, id string) (Snapshot, error) {
	return r.with(ownerID, id, func(e *entry) error {
		if err := e.tracker.Complete(); err != nil {
			return err
		}
		e.alerts.Clear()
		metrics.RecordProgressTransition("complete")
		return nil
	})
}

// Fail moves the session to errored and raises an error alert.
func (r *Registry) Fail(ownerID, id, message string) (Snapshot, error) {
	return r.with(ownerID, id, func(e *entry) error {
		e.tracker.Error(message)
		e.alerts.Show(message, AlertError)
		metrics.RecordProgressTransition("error")
		return nil
	})
}

// ShowAlert adds an alert to the session.
func (r *Registry) ShowAlert(ownerID, id, message string, typ AlertType) (Alert, error) {
	var a Alert
	_, err := r.with(ownerID, id, func(e *entry) error {
		a = e.alerts.Show(message, typ)
		return nil
	})
	return a, err
}

// DismissAlert removes one alert and reports whether it was visible.
func (r *Registry) DismissAlert(ownerID, id, alertID string) (bool, error) {
	var found bool
	_, err := r.with(ownerID, id, func(e *entry) error {
		found = e.alerts.Dismiss(alertID)
		return nil
	})
	return found, err
}

// Len returns the number of held sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) with(ownerID, id string, fn func(*entry) error) (Snapshot, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || e.ownerID != ownerID {
		return Snapshot{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e); err != nil {
		return e.snapshotLocked(), err
	}
	return e.snapshotLocked(), nil
}

func (r *Registry) publish(e *entry, m DisplayModel) {
	e.updatedAt = r.cfg.Now()
	if r.broadcaster != nil {
		r.broadcaster.BroadcastProgress(Update{SessionID: e.id, OwnerID: e.ownerID, Model: m})
	}
}

func (e *entry) snapshotLocked() Snapshot {
	now := e.tracker.now()
	return Snapshot{
		ID:        e.id,
		Label:     e.label,
		OwnerID:   e.ownerID,
		Session:   e.tracker.Session(),
		Model:     Render(e.tracker.Session(), e.tracker.Stages(), now),
		Alerts:    e.alerts.Active(now),
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
	}
}

// Sweep evicts finished sessions older than Retention and any session older
// than MaxAge. It returns the number evicted.
func (r *Registry) Sweep() int {
	now := r.cfg.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		finished := e.tracker.Session().State.Terminal()
		expired := now.Sub(e.createdAt) > r.cfg.MaxAge ||
			(finished && now.Sub(e.updatedAt) > r.cfg.Retention)
		e.mu.Unlock()
		if expired {
			delete(r.sessions, id)
			evicted++
		}
	}
	metrics.ProgressSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Serve sweeps on SweepInterval until ctx is done. It implements
// suture.Service.
func (r *Registry) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logging.Debug().Int("evicted", n).Int("remaining", r.Len()).Msg("Progress sessions swept")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *Registry) String() string {
	return "progress-registry"
}
