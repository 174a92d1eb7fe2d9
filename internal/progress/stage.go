// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

// Package progress models a caller-driven, multi-stage progress indicator for
// report generation.
//
// A Tracker never advances on its own; its owner calls Start, Advance,
// Complete, or Error. Every state entry is turned into a DisplayModel by the
// pure Render function and handed to a View. The percentage is index based
// and the time estimate comes from a fixed per-stage duration table, so the
// display never reflects how much real work is done.
package progress

import (
	"time"
)

// Stage is one named step with a pre-declared duration estimate.
type Stage struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	EstimatedDuration time.Duration `json:"estimated_duration_ms"`
}

// MarshalJSON writes EstimatedDuration in milliseconds.
func (s Stage) MarshalJSON() ([]byte, error) {
	return marshalStage(s)
}

var defaultStages = []Stage{
	{ID: "validation", Name: "Validating Input", EstimatedDuration: 500 * time.Millisecond},
	{ID: "personas", Name: "Generating Expert Personas", EstimatedDuration: 8 * time.Second},
	{ID: "analysis", Name: "Expert Analysis in Progress", EstimatedDuration: 15 * time.Second},
	{ID: "synthesis", Name: "Synthesizing Results", EstimatedDuration: 8 * time.Second},
	{ID: "formatting", Name: "Formatting Report", EstimatedDuration: 2 * time.Second},
}

// DefaultStages returns a copy of the report generation stage table.
func DefaultStages() []Stage {
	out := make([]Stage, len(defaultStages))
	copy(out, defaultStages)
	return out
}

// TotalDuration sums the estimates of stages.
func TotalDuration(stages []Stage) time.Duration {
	var total time.Duration
	for _, s := range stages {
		total += s.EstimatedDuration
	}
	return total
}
