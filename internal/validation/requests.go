// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package validation

import (
	"github.com/tomtom215/reportdesk/internal/models"
)

// SaveReportRequest is the body of a save. A report that is null, absent,
// or {} fails; a non-object report never decodes into Fields.
type SaveReportRequest struct {
	Report models.Fields `json:"report" validate:"required,min=1"`
}

// ListReportsQuery holds the optional ?limit of a list.
type ListReportsQuery struct {
	Limit int `json:"limit" validate:"gte=0,lte=1000"`
}

// LoginRequest is the body of the local token endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// ProgressCreateRequest is the optional body when starting a progress session.
type ProgressCreateRequest struct {
	Label string `json:"label" validate:"omitempty,max=200"`
}

// ProgressErrorRequest moves a progress session to the errored state.
type ProgressErrorRequest struct {
	Message string `json:"message" validate:"required,notblank,max=500"`
}

// ProgressAlertRequest raises a banner on a progress session.
type ProgressAlertRequest struct {
	Message string `json:"message" validate:"required,notblank,max=500"`
	Type    string `json:"type" validate:"omitempty,oneof=error info success warning"`
}
