// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package models

import (
	"time"
)

// APIResponse is the standard response envelope.
//
// Status is "success" or "error". On error, Data is null and Error is set:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-01-02T15:04:05Z"},
//	  "error": {
//	    "code": "INVALID_TOKEN",
//	    "message": "Unauthorized: Invalid token."
//	  }
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable code plus a plain description.
//
// Codes used by the report endpoints:
//   - METHOD_NOT_ALLOWED
//   - UNAUTHENTICATED: no bearer token
//   - INVALID_TOKEN: the token failed verification
//   - INVALID_PAYLOAD: report missing, empty, or not an object
//   - STORE_FAILURE: the store could not complete the request
//   - NOT_FOUND
//   - RATE_LIMIT_EXCEEDED
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SaveReportResponse is returned by a successful save.
type SaveReportResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	ReportID string `json:"reportId"`
}

// TokenResponse is returned by the local login endpoint.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	StoreBackend string            `json:"store_backend"`
	StoreHealthy bool              `json:"store_healthy"`
	AuthMode     string            `json:"auth_mode"`
	Uptime       float64           `json:"uptime_seconds"`
	Checks       map[string]string `json:"checks,omitempty"`
	WSClients    int               `json:"websocket_clients"`
}
