// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	want := []struct {
		id   string
		name string
		dur  time.Duration
	}{
		{"validation", "Validating Input", 500 * time.Millisecond},
		{"personas", "Generating Expert Personas", 8 * time.Second},
		{"analysis", "Expert Analysis in Progress", 15 * time.Second},
		{"synthesis", "Synthesizing Results", 8 * time.Second},
		{"formatting", "Formatting Report", 2 * time.Second},
	}
	if len(stages) != len(want) {
		t.Fatalf("len = %d, want %d", len(stages), len(want))
	}
	for i, w := range want {
		if stages[i].ID != w.id || stages[i].Name != w.name || stages[i].EstimatedDuration != w.dur {
			t.Errorf("stage %d = %+v", i, stages[i])
		}
	}
	if TotalDuration(stages) != 33500*time.Millisecond {
		t.Errorf("TotalDuration = %v", TotalDuration(stages))
	}

	stages[0].Name = "mutated"
	if DefaultStages()[0].Name != "Validating Input" {
		t.Error("DefaultStages() must return a copy")
	}
}

func TestRender(t *testing.T) {
	stages := DefaultStages()
	tests := []struct {
		name    string
		session Session
		now     time.Time
		want    DisplayModel
	}{
		{
			name:    "idle",
			session: Session{State: StateIdle},
			now:     t0,
			want: DisplayModel{
				State: StateIdle, StageCount: 5, Counter: "0 of 5", BarColor: BarColorDefault,
			},
		},
		{
			name:    "first stage at start",
			session: Session{State: StateRunning, StageIndex: 0, StartTime: t0},
			now:     t0,
			want: DisplayModel{
				State: StateRunning, StageID: "validation", StageName: "Validating Input",
				StageIndex: 0, StageCount: 5, Percent: 20, Counter: "1 of 5",
				TimeRemaining: "~34s remaining", BarColor: BarColorDefault,
			},
		},
		{
			name:    "third stage after ten seconds",
			session: Session{State: StateRunning, StageIndex: 2, StartTime: t0},
			now:     t0.Add(10 * time.Second),
			want: DisplayModel{
				State: StateRunning, StageID: "analysis", StageName: "Expert Analysis in Progress",
				StageIndex: 2, StageCount: 5, Percent: 60, Counter: "3 of 5",
				TimeRemaining: "~24s remaining", BarColor: BarColorDefault,
			},
		},
		{
			name:    "last stage is 100",
			session: Session{State: StateRunning, StageIndex: 4, StartTime: t0},
			now:     t0.Add(33 * time.Second),
			want: DisplayModel{
				State: StateRunning, StageID: "formatting", StageName: "Formatting Report",
				StageIndex: 4, StageCount: 5, Percent: 100, Counter: "5 of 5",
				TimeRemaining: "~1s remaining", BarColor: BarColorDefault,
			},
		},
		{
			name:    "elapsed beyond total clamps at zero",
			session: Session{State: StateRunning, StageIndex: 1, StartTime: t0},
			now:     t0.Add(5 * time.Minute),
			want: DisplayModel{
				State: StateRunning, StageID: "personas", StageName: "Generating Expert Personas",
				StageIndex: 1, StageCount: 5, Percent: 40, Counter: "2 of 5",
				TimeRemaining: "~0s remaining", BarColor: BarColorDefault,
			},
		},
		{
			name:    "complete from stage two forces 100",
			session: Session{State: StateComplete, StageIndex: 3, StartTime: t0},
			now:     t0.Add(time.Second),
			want: DisplayModel{
				State: StateComplete, StageID: "synthesis", StageName: CompleteStageText,
				StageIndex: 3, StageCount: 5, Percent: 100, Counter: "4 of 5",
				TimeRemaining: CompleteRemaining, BarColor: BarColorDefault,
			},
		},
		{
			name:    "errored",
			session: Session{State: StateErrored, StageIndex: 0, StartTime: t0, ErrorMessage: "x"},
			now:     t0,
			want: DisplayModel{
				State: StateErrored, StageID: "validation", StageName: "Error: x",
				StageIndex: 0, StageCount: 5, Percent: 20, Counter: "1 of 5",
				TimeRemaining: "~34s remaining", BarColor: BarColorError,
			},
		},
		{
			name:    "out of range index is clamped",
			session: Session{State: StateRunning, StageIndex: 9, StartTime: t0},
			now:     t0,
			want: DisplayModel{
				State: StateRunning, StageID: "formatting", StageName: "Formatting Report",
				StageIndex: 4, StageCount: 5, Percent: 100, Counter: "5 of 5",
				TimeRemaining: "~34s remaining", BarColor: BarColorDefault,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.session, stages, tt.now); got != tt.want {
				t.Errorf("Render() =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestRemainingText(t *testing.T) {
	total := 33500 * time.Millisecond
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "~34s remaining"},
		{500 * time.Millisecond, "~33s remaining"},
		{501 * time.Millisecond, "~33s remaining"},
		{33 * time.Second, "~1s remaining"},
		{33500 * time.Millisecond, "~0s remaining"},
		{time.Hour, "~0s remaining"},
		{-time.Second, "~35s remaining"},
	}
	for _, tt := range tests {
		if got := RemainingText(total, tt.elapsed); got != tt.want {
			t.Errorf("RemainingText(%v) = %q, want %q", tt.elapsed, got, tt.want)
		}
	}
}

func TestStage_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultStages()[1])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id":"personas","name":"Generating Expert Personas","estimated_duration_ms":8000}` {
		t.Errorf("Marshal = %s", data)
	}
}
