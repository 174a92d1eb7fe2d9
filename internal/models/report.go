// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Server-owned report keys.
const (
	FieldReportID  = "reportId"
	FieldUserID    = "userId"
	FieldCreatedAt = "createdAt"
)

// TimestampFormat is the wire format of createdAt.
const TimestampFormat = time.RFC3339Nano

// Fields is the caller-supplied part of a report. Values are kept as raw
// JSON so numbers and nested documents round-trip exactly.
type Fields map[string]json.RawMessage

// Report is a stored report. It marshals as one flat JSON object: the
// caller's fields plus reportId, userId, and createdAt.
type Report struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Fields    Fields
}

// IsReservedField reports whether key is owned by the server.
func IsReservedField(key string) bool {
	switch key {
	case FieldReportID, FieldUserID, FieldCreatedAt:
		return true
	}
	return false
}

// StripReserved returns a copy of f without server-owned keys.
func StripReserved(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if IsReservedField(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON flattens the report into a single object.
func (r Report) MarshalJSON() ([]byte, error) {
	flat := make(map[string]json.RawMessage, len(r.Fields)+3)
	for k, v := range r.Fields {
		if IsReservedField(k) {
			continue
		}
		flat[k] = v
	}

	var err error
	if flat[FieldReportID], err = json.Marshal(r.ID); err != nil {
		return nil, err
	}
	if flat[FieldUserID], err = json.Marshal(r.UserID); err != nil {
		return nil, err
	}
	if flat[FieldCreatedAt], err = json.Marshal(r.CreatedAt.UTC().Format(TimestampFormat)); err != nil {
		return nil, err
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat form written by MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	out := Report{Fields: make(Fields, len(flat))}
	for k, v := range flat {
		switch k {
		case FieldReportID:
			if err := json.Unmarshal(v, &out.ID); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
		case FieldUserID:
			if err := json.Unmarshal(v, &out.UserID); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
		case FieldCreatedAt:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			t, err := time.Parse(TimestampFormat, s)
			if err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out.CreatedAt = t
		default:
			out.Fields[k] = v
		}
	}
	*r = out
	return nil
}

// DailyCount is the number of reports created on one UTC day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// ReportStats summarizes one user's reports.
type ReportStats struct {
	UserID string       `json:"userId"`
	Total  int64        `json:"total"`
	Since  time.Time    `json:"since"`
	Daily  []DailyCount `json:"daily"`
	Latest *time.Time   `json:"latest,omitempty"`
}

// ReportSavedEvent is published after a report is persisted.
type ReportSavedEvent struct {
	ReportID   string    `json:"reportId"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	FieldCount int       `json:"fieldCount"`
}

// NewReportSavedEvent builds the event for r.
func NewReportSavedEvent(r *Report) ReportSavedEvent {
	return ReportSavedEvent{
		ReportID:   r.ID,
		UserID:     r.UserID,
		CreatedAt:  r.CreatedAt,
		FieldCount: len(r.Fields),
	}
}
