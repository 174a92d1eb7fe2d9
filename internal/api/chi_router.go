// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/reportdesk/internal/middleware"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler       *Handler
	auth          *AuthMiddleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. chiMw may be nil for defaults.
func NewRouter(handler *Handler, authMw *AuthMiddleware, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMw, chiMiddleware: chiMw}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
//
// Auth is attached per endpoint group, after Chi has matched the method,
// so a wrong method is answered with 405 before any token is verified.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	authenticate := chiMiddleware(router.auth.Authenticate)
	authenticateWS := chiMiddleware(router.auth.AuthenticateWebSocket)

	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chiMiddleware(middleware.SecurityHeaders))

	// Set before Route so mounted subrouters inherit them
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	// Health
	r.Get("/health", h.Health)
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)

	// Report endpoints at their original paths. They accept any method at
	// the router so the method check runs as its own pipeline stage.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.With(AllowMethods(http.MethodPost), authenticate).HandleFunc("/saveReport", h.SaveReport)
		r.With(AllowMethods(http.MethodGet), authenticate).HandleFunc("/getReports", h.GetReports)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/auth/token", h.IssueToken)
		r.With(authenticateWS).Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/reports", h.GetReports)
			r.Post("/reports", h.SaveReport)
			r.Get("/reports/stats", h.ReportStats)
			r.Get("/reports/{reportId}", h.GetReport)

			if h.registry != nil {
				r.Get("/progress/stages", h.ProgressStages)
				r.Post("/progress", h.ProgressCreate)
				r.Get("/progress/{sessionId}", h.ProgressGet)
				r.Post("/progress/{sessionId}/advance", h.ProgressAdvance)
				r.Post("/progress/{sessionId}/complete", h.ProgressComplete)
				r.Post("/progress/{sessionId}/error", h.ProgressError)
				r.Post("/progress/{sessionId}/alerts", h.ProgressShowAlert)
				r.Delete("/progress/{sessionId}/alerts/{alertId}", h.ProgressDismissAlert)
			}
		})
	})

	// Observability
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
