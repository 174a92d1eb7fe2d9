// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

// Error codes for API responses
const (
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeInvalidPayload     = "INVALID_PAYLOAD"
	ErrCodeStoreFailure       = "STORE_FAILURE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Caller-visible messages
const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgNoToken          = "Unauthorized: No token provided."
	msgInvalidToken     = "Unauthorized: Invalid token."
	msgInvalidPayload   = "Bad Request: Report data must be a non-empty object."
	msgSaveFailed       = "Internal Server Error: Could not save report."
	msgFetchFailed      = "Internal Server Error: Could not fetch reports."
	msgReportSaved      = "Report successfully saved."
	msgReportNotFound   = "Report not found"
	msgSessionNotFound  = "Progress session not found"
	msgRateLimited      = "Too many requests. Please try again later."
)
