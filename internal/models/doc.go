// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package models defines the data structures shared by the store, API, and
event layers.

Key Components:

  - Report: a caller-supplied JSON object plus the server-owned reportId,
    userId, and createdAt fields
  - ReportStats: per-user report totals and daily counts
  - ReportSavedEvent: the message published after a successful save
  - APIResponse: standard response envelope used for error bodies and the
    /api/v1 resource endpoints

Reserved fields:

The keys reportId, userId, and createdAt are owned by the server. Clients may
send them but they are always discarded and replaced on persistence, so a
stored report can never claim another owner or backdate itself.
*/
package models
