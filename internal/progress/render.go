// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package progress

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// State is the lifecycle position of a session.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateErrored  State = "errored"
)

// Terminal reports whether no further transition except Error is allowed.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateErrored
}

// Display constants.
const (
	CompleteStageText   = "Analysis Complete!"
	CompleteRemaining   = "Done"
	BarColorDefault     = "#3498db"
	BarColorError       = "#e74c3c"
	errorStagePrefix    = "Error: "
	remainingTextFormat = "~%ds remaining"
)

// Session is the mutable state of one run.
type Session struct {
	StageIndex   int       `json:"stage_index"`
	StartTime    time.Time `json:"start_time"`
	State        State     `json:"state"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// DisplayModel is everything a View needs to paint the indicator.
type DisplayModel struct {
	State         State   `json:"state"`
	StageID       string  `json:"stage_id,omitempty"`
	StageName     string  `json:"stage_name"`
	StageIndex    int     `json:"stage_index"`
	StageCount    int     `json:"stage_count"`
	Percent       float64 `json:"percent"`
	Counter       string  `json:"counter"`
	TimeRemaining string  `json:"time_remaining"`
	BarColor      string  `json:"bar_color"`
}

// Render computes the display for session at time now. It has no side
// effects.
//
//   - Percent is (index+1)/N*100, or 100 once complete.
//   - Counter is "k of N" with k = index+1.
//   - TimeRemaining is ceil(max(0, total-elapsed)) whole seconds; it is
//     never negative and is "Done" once complete.
//   - An errored session shows "Error: <message>" in the error color.
func Render(session Session, stages []Stage, now time.Time) DisplayModel {
	n := len(stages)
	m := DisplayModel{
		State:      session.State,
		StageIndex: session.StageIndex,
		StageCount: n,
		BarColor:   BarColorDefault,
	}

	if session.State == StateIdle || n == 0 {
		m.Counter = fmt.Sprintf("0 of %d", n)
		return m
	}

	idx := clampIndex(session.StageIndex, n)
	m.StageIndex = idx
	m.StageID = stages[idx].ID
	m.StageName = stages[idx].Name
	m.Percent = float64((idx+1)*100) / float64(n)
	m.Counter = fmt.Sprintf("%d of %d", idx+1, n)
	m.TimeRemaining = RemainingText(TotalDuration(stages), now.Sub(session.StartTime))

	switch session.State {
	case StateComplete:
		m.StageName = CompleteStageText
		m.Percent = 100
		m.TimeRemaining = CompleteRemaining
	case StateErrored:
		m.StageName = errorStagePrefix + session.ErrorMessage
		m.BarColor = BarColorError
	}
	return m
}

// RemainingText formats the static estimate left after elapsed.
func RemainingText(total, elapsed time.Duration) string {
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	secs := (remaining + time.Second - 1) / time.Second
	return fmt.Sprintf(remainingTextFormat, int64(secs))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func marshalStage(s Stage) ([]byte, error) {
	return json.Marshal(struct {
		ID                string `json:"id"`
		Name              string `json:"name"`
		EstimatedDuration int64  `json:"estimated_duration_ms"`
	}{s.ID, s.Name, s.EstimatedDuration.Milliseconds()})
}
