// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/tomtom215/reportdesk/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("NewPostgresContainer() error = %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenPostgres(ctx, pg.DSN)
		if err != nil {
			t.Fatalf("OpenPostgres() error = %v", err)
		}
		// Subtests share one database; start each from an empty table.
		if _, err := s.pool.Exec(ctx, `TRUNCATE reports`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
