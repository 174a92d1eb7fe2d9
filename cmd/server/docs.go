// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

// @title Reportdesk API
// @version 1.0
// @description Per-user report persistence with bearer authentication, plus server-side progress tracking.
// @description
// @description ## Authentication
// @description
// @description Every report and progress endpoint requires `Authorization: Bearer <token>`.
// @description In jwt mode tokens come from `/api/v1/auth/token`; in oidc mode they are ID tokens from the configured issuer.
// @description A missing token answers 403 UNAUTHENTICATED, a rejected one 403 INVALID_TOKEN.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "ERROR_CODE", "message": "Human-readable error message"},
// @description   "metadata": {"timestamp": "2026-05-01T09:00:00Z"}
// @description }
// @description ```
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token: an HS256 token from /api/v1/auth/token or an OIDC ID token.
//
// @tag.name Core
// @tag.description Health and readiness probes
//
// @tag.name Reports
// @tag.description Save and list the caller's reports
//
// @tag.name Auth
// @tag.description Local token issuance
//
// @tag.name Progress
// @tag.description Server-side progress sessions and live updates
package main
