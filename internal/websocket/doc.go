// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package websocket pushes live updates to browser clients.

A Hub owns the set of connected clients and fans out typed messages. Each
Client runs a read pump (client pings, pong deadlines) and a write pump
(outbound messages, server pings) on its own goroutines.

Message types:

  - progress: a rendered progress.DisplayModel for one tracker session
  - report_saved: a models.ReportSavedEvent after a successful insert
  - ping / pong: application-level keepalive

Messages that carry an owner are only delivered to clients authenticated as
that owner. The Hub satisfies progress.Broadcaster, so the progress registry
renders straight to the wire.

	hub := websocket.NewHub()
	tree.AddMessagingService(services.NewHubService(hub))
	registry := progress.NewRegistry(progress.DefaultRegistryConfig(), hub)
*/
package websocket
