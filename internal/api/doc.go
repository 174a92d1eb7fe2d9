// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package api provides the HTTP surface of Reportdesk on a Chi router.

Every report request passes the same ordered pipeline, and any stage can
short-circuit with a typed error:

	CORS -> method check -> bearer auth -> payload validation -> store

Routes:

  - POST /saveReport, GET /getReports: report endpoints at their
    original paths
  - GET|POST /api/v1/reports, GET /api/v1/reports/{reportId},
    GET /api/v1/reports/stats
  - POST /api/v1/auth/token: local login, jwt mode only
  - /api/v1/progress...: server-side progress sessions
  - GET /api/v1/ws: websocket for progress and report_saved pushes (token in
    the Authorization header or the access_token query parameter)
  - /health, /health/live, /health/ready, /metrics, /swagger/

Errors use the models.APIResponse envelope with status "error". The report
save and list success bodies keep their original raw shapes
({message,userId,reportId} and a bare array); every other success uses the
envelope with status "success".

Store failures are logged with request and user id and surface to callers
only as a generic 500.
*/
package api
