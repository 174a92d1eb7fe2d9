// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

// Package services adapts components with their own lifecycles to
// suture.Service. Components that already implement Serve(ctx) error, such
// as progress.Registry and events.Consumer, are added to the tree directly.
package services
