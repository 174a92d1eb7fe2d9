// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/models"
	"github.com/tomtom215/reportdesk/internal/progress"
	"github.com/tomtom215/reportdesk/internal/store"
	ws "github.com/tomtom215/reportdesk/internal/websocket"
)

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// statsWindowDays is how many days of daily counts the stats endpoint returns.
const statsWindowDays = 7

// EventPublisher receives report_saved events after a successful insert.
// Satisfied by *events.Publisher.
type EventPublisher interface {
	PublishReportSaved(ctx context.Context, event models.ReportSavedEvent) error
}

// BreakerReporter is implemented by verifiers that fetch keys through a
// circuit breaker.
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_reports.go: save, list, get, stats
//   - handlers_auth.go: local token issuance
//   - handlers_progress.go: progress sessions
//   - handlers_websocket.go: websocket upgrade
//   - handlers_health.go: health and probes
type Handler struct {
	config     *config.Config
	store      store.Store
	registry   *progress.Registry
	wsHub      *ws.Hub
	upgrader   *websocket.Upgrader
	jwtManager *auth.JWTManager
	localUsers *auth.LocalUsers
	publisher  EventPublisher
	breaker    BreakerReporter
	startTime  time.Time
	now        func() time.Time
}

// NewHandler creates a handler. hub and registry may be nil, which disables
// the websocket and progress endpoints respectively.
func NewHandler(cfg *config.Config, st store.Store, registry *progress.Registry, hub *ws.Hub) *Handler {
	var origins []string
	if cfg != nil {
		origins = cfg.Security.CORSOrigins
	}
	return &Handler{
		config:    cfg,
		store:     st,
		registry:  registry,
		wsHub:     hub,
		upgrader:  ws.NewUpgrader(origins),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// SetTokenIssuer enables POST /api/v1/auth/token. Both arguments are required.
func (h *Handler) SetTokenIssuer(manager *auth.JWTManager, users *auth.LocalUsers) {
	h.jwtManager = manager
	h.localUsers = users
}

// SetEventPublisher sets the report_saved publisher. Optional.
func (h *Handler) SetEventPublisher(p EventPublisher) {
	h.publisher = p
}

// SetVerifier exposes the verifier's circuit breaker state in Health when
// it has one.
func (h *Handler) SetVerifier(v auth.Verifier) {
	if br, ok := v.(BreakerReporter); ok {
		h.breaker = br
	}
}

func (h *Handler) authMode() string {
	if h.config == nil {
		return ""
	}
	return h.config.Security.AuthMode
}

func (h *Handler) listLimit() int {
	if h.config == nil {
		return 0
	}
	return h.config.Store.ListLimit
}
