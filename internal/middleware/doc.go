// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package middleware provides infrastructure HTTP middleware: request IDs,
access logging, Prometheus instrumentation, and response security headers.

The functions take and return http.HandlerFunc; the api package adapts them
to chi's func(http.Handler) http.Handler with chiMiddleware. Authentication
and method checks are not here because they write API error envelopes and
live next to the handlers.

Typical global order:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
*/
package middleware
