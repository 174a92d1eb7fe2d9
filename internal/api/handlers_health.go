// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reportdesk/internal/models"
)

const pingTimeout = 2 * time.Second

func (h *Handler) storeHealthy(ctx context.Context) bool {
	if h.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.store.Ping(ctx) == nil
}

// Health handles health check requests.
//
// @Summary Get system health status
// @Description Returns store connectivity, auth mode, key endpoint breaker state, websocket client count and uptime
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	healthy := h.storeHealthy(r.Context())

	status := "healthy"
	storeCheck := "ok"
	if !healthy {
		status = "degraded"
		storeCheck = "unreachable"
	}

	health := models.HealthStatus{
		Status:       status,
		Version:      Version,
		StoreHealthy: healthy,
		AuthMode:     h.authMode(),
		Uptime:       time.Since(h.startTime).Seconds(),
		Checks:       map[string]string{"store": storeCheck},
	}
	if h.store != nil {
		health.StoreBackend = h.store.Backend()
	}
	if h.wsHub != nil {
		health.WSClients = h.wsHub.GetClientCount()
	}
	if h.registry != nil {
		health.Checks["progress_sessions"] = strconv.Itoa(h.registry.Len())
	}
	if h.breaker != nil {
		state := h.breaker.BreakerState()
		health.Checks["oidc_breaker"] = state.String()
		if state == gobreaker.StateOpen {
			health.Status = "degraded"
		}
	}

	respondSuccess(w, http.StatusOK, health, start)
}

// HealthLive handles liveness probe requests. It never checks dependencies.
//
// @Summary Liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady returns 503 until the store answers a ping.
//
// @Summary Readiness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse "Service is ready"
// @Failure 503 {object} models.APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	healthy := h.storeHealthy(r.Context())

	statusCode := http.StatusOK
	status := "ready"
	if !healthy {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"store_connected": healthy,
			"ready_to_serve":  healthy,
			"uptime":          time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
