// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"errors"
	"time"
)

var (
	// ErrNotRunning is returned by Advance outside the running state.
	ErrNotRunning = errors.New("progress session is not running")

	// ErrFinished is returned by Start and Complete once a session has
	// completed or errored.
	ErrFinished = errors.New("progress session already finished")
)

// View receives a DisplayModel on every state entry.
type View interface {
	Render(DisplayModel)
}

// ViewFunc adapts a function to View.
type ViewFunc func(DisplayModel)

// Render implements View.
func (f ViewFunc) Render(m DisplayModel) { f(m) }

// Tracker is a single-owner progress state machine:
//
//	idle --Start--> running(0) --Advance--> running(i+1) ... running(N-1)
//	running --Complete--> complete
//	any --Error--> errored
//
// Advance at the last stage is a no-op; it never completes the run.
// Tracker is not safe for concurrent use; Registry serializes access.
type Tracker struct {
	stages  []Stage
	session Session
	view    View
	now     func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock sets the time source used for start times and rendering.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithView sets the View that receives each DisplayModel.
func WithView(v View) TrackerOption {
	return func(t *Tracker) {
		t.view = v
	}
}

// NewTracker creates an idle tracker over stages. A nil or empty stages
// uses DefaultStages.
func NewTracker(stages []Stage, opts ...TrackerOption) *Tracker {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	t := &Tracker{
		stages:  stages,
		session: Session{State: StateIdle},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start enters stage 0 and records the start time. Starting a running
// session restarts it.
func (t *Tracker) Start() error {
	if t.session.State.Terminal() {
		return ErrFinished
	}
	t.session = Session{
		StageIndex: 0,
		StartTime:  t.now(),
		State:      StateRunning,
	}
	t.render()
	return nil
}

// Advance moves to the next stage. It reports whether the index changed;
// at the last stage it returns false and renders nothing.
func (t *Tracker) Advance() (bool, error) {
	if t.session.State != StateRunning {
		return false, ErrNotRunning
	}
	if t.session.StageIndex+1 >= len(t.stages) {
		return false, nil
	}
	t.session.StageIndex++
	t.render()
	return true, nil
}

// Complete finishes the run. The display shows 100% regardless of the
// current stage.
func (t *Tracker) Complete() error {
	if t.session.State.Terminal() {
		return ErrFinished
	}
	if t.session.State == StateIdle {
		t.session.StartTime = t.now()
	}
	t.session.State = StateComplete
	t.render()
	return nil
}

// Error moves to the errored state from any state and shows message.
func (t *Tracker) Error(message string) {
	if t.session.State == StateIdle {
		t.session.StartTime = t.now()
	}
	t.session.State = StateErrored
	t.session.ErrorMessage = message
	t.render()
}

// Session returns a copy of the current state.
func (t *Tracker) Session() Session {
	return t.session
}

// Stages returns the stage table.
func (t *Tracker) Stages() []Stage {
	return t.stages
}

// Model renders the current state at the tracker's current time.
func (t *Tracker) Model() DisplayModel {
	return Render(t.session, t.stages, t.now())
}

func (t *Tracker) render() {
	if t.view == nil {
		return
	}
	t.view.Render(t.Model())
}
