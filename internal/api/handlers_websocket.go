// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"net/http"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/logging"
	ws "github.com/tomtom215/reportdesk/internal/websocket"
)

// WebSocket upgrades an authenticated request. The client receives
// progress updates and report_saved events for its own user only. Browsers
// pass the token as the access_token query parameter.
//
// @Summary Live updates websocket
// @Tags Progress
// @Security BearerAuth
// @Param access_token query string false "Bearer token for clients that cannot set headers"
// @Success 101 "Switching Protocols"
// @Failure 403 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse "websocket hub not running"
// @Router /api/v1/ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live updates are not available", nil)
		return
	}
	subject := auth.SubjectFromContext(r.Context())
	if err := ws.ServeWS(h.wsHub, h.upgrader, w, r, subject.ID); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
	}
}
