// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/metrics"
	"github.com/tomtom215/reportdesk/internal/models"
	"github.com/tomtom215/reportdesk/internal/validation"
)

// IssueToken exchanges local credentials for an HS256 bearer token.
//
// @Summary Issue a bearer token
// @Description Verifies a configured local user with bcrypt and returns a signed token. Only available in jwt auth mode with LOCAL_USERS set.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body validation.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.TokenResponse}
// @Failure 400 {object} models.APIResponse "VALIDATION_ERROR"
// @Failure 401 {object} models.APIResponse "INVALID_CREDENTIALS"
// @Failure 404 {object} models.APIResponse "token issuance disabled"
// @Router /api/v1/auth/token [post]
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.jwtManager == nil || h.localUsers.Len() == 0 {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Token issuance is not enabled", nil)
		return
	}

	var req validation.LoginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	logger := logging.Ctx(r.Context())
	if err := h.localUsers.Authenticate(req.Username, req.Password); err != nil {
		metrics.RecordAuthFailure("bad_credentials")
		logger.Warn().Str("username", sanitizeLogValue(req.Username)).Msg("Login failed")
		respondError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid username or password", nil)
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username, req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not issue token", err)
		return
	}

	logger.Info().Str("username", sanitizeLogValue(req.Username)).Msg("Token issued")
	respondSuccess(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: h.now().Add(h.jwtManager.TTL()).UTC(),
		UserID:    req.Username,
	}, start)
}
