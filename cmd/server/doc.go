// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package main is the entry point for the Reportdesk server.

Reportdesk stores JSON reports per authenticated user and tracks the
progress of long-running analyses on the server, pushing every change to
websocket clients.

# Application Architecture

	RootSupervisor ("reportdesk")
	├── DataSupervisor ("data-layer")
	│   └── progress session sweeper
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   ├── embedded NATS server (NATS_EMBEDDED=true)
	│   └── report_saved consumer
	└── APISupervisor ("api-layer")
	    └── HTTP server

Startup order:

 1. Configuration: koanf (defaults, config.yaml, .env, environment)
 2. Logging: zerolog, bridged to slog for suture and Watermill
 3. Report store: Badger, DuckDB or PostgreSQL
 4. Token verifier: local HS256 or OIDC
 5. Events: Watermill over gochannel or NATS
 6. Supervisor tree and HTTP server

# Endpoints

	POST /saveReport            save a report (raw response body)
	GET  /getReports            list the caller's reports, newest first
	/api/v1/reports...          the same under the versioned API
	/api/v1/progress...         progress sessions
	GET  /api/v1/ws             live progress and report_saved events
	GET  /health, /metrics, /swagger/

# Configuration

Common environment variables:

	HTTP_PORT=8080
	AUTH_MODE=jwt                    # or oidc
	JWT_SECRET=...                   # at least 32 characters
	LOCAL_USERS=alice:$2a$10$...
	OIDC_ISSUER_URL=https://issuer.example.com
	OIDC_CLIENT_ID=reportdesk
	STORE_BACKEND=badger             # badger, duckdb, postgres
	STORE_PATH=/data/reports
	STORE_DSN=postgres://...
	EVENTS_BACKEND=memory            # or nats
	NATS_EMBEDDED=false
	LOG_LEVEL=info
*/
package main
