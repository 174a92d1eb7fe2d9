// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/reportdesk/internal/models"
)

// DefaultTopic carries report_saved events.
const DefaultTopic = "reports.saved"

const (
	metadataUserID = "user_id"
	metadataType   = "event_type"
	eventType      = "report_saved"
)

// NewReportSavedMessage encodes event as a Watermill message.
func NewReportSavedMessage(event models.ReportSavedEvent) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal report_saved event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metadataType, eventType)
	msg.Metadata.Set(metadataUserID, event.UserID)
	return msg, nil
}

// DecodeReportSaved parses a message produced by NewReportSavedMessage.
func DecodeReportSaved(msg *message.Message) (models.ReportSavedEvent, error) {
	var event models.ReportSavedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("unmarshal report_saved event %s: %w", msg.UUID, err)
	}
	if event.ReportID == "" || event.UserID == "" {
		return event, fmt.Errorf("report_saved event %s: missing report or user id", msg.UUID)
	}
	return event, nil
}
