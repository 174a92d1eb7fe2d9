// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"errors"
	"testing"
	"time"
)

// recordingView keeps every rendered model.
type recordingView struct {
	models []DisplayModel
}

func (v *recordingView) Render(m DisplayModel) { v.models = append(v.models, m) }

func (v *recordingView) last() DisplayModel { return v.models[len(v.models)-1] }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestTracker() (*Tracker, *recordingView, *fakeClock) {
	view := &recordingView{}
	clock := &fakeClock{now: t0}
	return NewTracker(nil, WithView(view), WithClock(clock.Now)), view, clock
}

func TestTracker_StartAndAdvanceSaturates(t *testing.T) {
	tr, view, _ := newTestTracker()

	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := tr.Advance(); err != nil {
			t.Fatalf("Advance() #%d error = %v", i, err)
		}
		m := tr.Model()
		if m.Percent == 100 && tr.Session().StageIndex != 4 {
			t.Errorf("100%% shown at index %d", tr.Session().StageIndex)
		}
	}

	s := tr.Session()
	if s.StageIndex != 4 {
		t.Errorf("StageIndex = %d, want 4", s.StageIndex)
	}
	if s.State != StateRunning {
		t.Errorf("State = %s, want running; advancing must not complete", s.State)
	}
	// Start plus four effective advances render; the saturated fifth does not.
	if len(view.models) != 5 {
		t.Errorf("rendered %d times, want 5", len(view.models))
	}
	if got := view.last(); got.Percent != 100 || got.Counter != "5 of 5" {
		t.Errorf("last model = %+v", got)
	}

	advanced, err := tr.Advance()
	if err != nil || advanced {
		t.Errorf("Advance() at last stage = (%v, %v), want (false, nil)", advanced, err)
	}
}

func TestTracker_PercentByIndex(t *testing.T) {
	tr, view, _ := newTestTracker()
	_ = tr.Start()
	for i := 0; i < 4; i++ {
		_, _ = tr.Advance()
	}
	want := []float64{20, 40, 60, 80, 100}
	for i, m := range view.models {
		if m.Percent != want[i] {
			t.Errorf("model %d Percent = %v, want %v", i, m.Percent, want[i])
		}
	}
}

func TestTracker_CompleteForces100(t *testing.T) {
	tr, view, _ := newTestTracker()
	_ = tr.Start()
	for i := 0; i < 3; i++ {
		_, _ = tr.Advance()
	}
	if got := view.last().Percent; got != 80 {
		t.Fatalf("Percent before Complete = %v, want 80", got)
	}

	if err := tr.Complete(); err != nil {
		t.Fatal(err)
	}
	m := view.last()
	if m.Percent != 100 || m.StageName != "Analysis Complete!" || m.TimeRemaining != "Done" || m.State != StateComplete {
		t.Errorf("model after Complete = %+v", m)
	}

	if err := tr.Complete(); !errors.Is(err, ErrFinished) {
		t.Errorf("second Complete() error = %v, want ErrFinished", err)
	}
	if _, err := tr.Advance(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Advance() after Complete error = %v, want ErrNotRunning", err)
	}
	if err := tr.Start(); !errors.Is(err, ErrFinished) {
		t.Errorf("Start() after Complete error = %v, want ErrFinished", err)
	}
}

func TestTracker_ErrorRightAfterStart(t *testing.T) {
	tr, view, _ := newTestTracker()
	_ = tr.Start()
	tr.Error("x")

	if tr.Session().State != StateErrored {
		t.Errorf("State = %s, want errored", tr.Session().State)
	}
	m := view.last()
	if m.StageName != "Error: x" {
		t.Errorf("StageName = %q, want %q", m.StageName, "Error: x")
	}
	if m.BarColor != "#e74c3c" {
		t.Errorf("BarColor = %q", m.BarColor)
	}
}

func TestTracker_ErrorFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Tracker)
	}{
		{"idle", func(*Tracker) {}},
		{"running", func(tr *Tracker) { _ = tr.Start() }},
		{"complete", func(tr *Tracker) { _ = tr.Start(); _ = tr.Complete() }},
		{"errored", func(tr *Tracker) { _ = tr.Start(); tr.Error("first") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, view, _ := newTestTracker()
			tt.setup(tr)
			tr.Error("boom")
			if tr.Session().State != StateErrored || view.last().StageName != "Error: boom" {
				t.Errorf("after Error: state %s, stage %q", tr.Session().State, view.last().StageName)
			}
		})
	}
}

func TestTracker_AdvanceBeforeStart(t *testing.T) {
	tr, view, _ := newTestTracker()
	if _, err := tr.Advance(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Advance() error = %v, want ErrNotRunning", err)
	}
	if len(view.models) != 0 {
		t.Errorf("rendered %d times, want 0", len(view.models))
	}
}

func TestTracker_TimeRemainingNeverNegative(t *testing.T) {
	tr, view, clock := newTestTracker()
	_ = tr.Start()
	clock.now = t0.Add(2 * time.Minute)
	_, _ = tr.Advance()
	if got := view.last().TimeRemaining; got != "~0s remaining" {
		t.Errorf("TimeRemaining = %q, want ~0s remaining", got)
	}
}

func TestTracker_RestartWhileRunning(t *testing.T) {
	tr, _, clock := newTestTracker()
	_ = tr.Start()
	_, _ = tr.Advance()
	clock.now = t0.Add(time.Minute)
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	s := tr.Session()
	if s.StageIndex != 0 || !s.StartTime.Equal(clock.now) {
		t.Errorf("session after restart = %+v", s)
	}
}

func TestTracker_WithoutView(t *testing.T) {
	tr := NewTracker(DefaultStages())
	if err := tr.Start(); err != nil {
		t.Fatal(err)
	}
	if tr.Model().StageName != "Validating Input" {
		t.Errorf("Model() = %+v", tr.Model())
	}
}
