// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package events fans out report_saved notifications through Watermill.

Two transports are supported:

  - memory: Watermill's gochannel pub/sub, single process
  - nats: watermill-nats over core NATS (JetStream disabled), optionally
    against an EmbeddedServer started in-process

The Publisher is called by the save handler after a successful insert. It is
guarded by a circuit breaker; a publish failure is counted and logged by the
caller and never fails the request. The Consumer is a supervised service that
counts each event and forwards it to a Sink such as the websocket hub.
*/
package events
