// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

// Package store persists reports. Every backend scopes reads and writes to a
// single user, assigns the report ID and creation time itself, and returns
// lists newest first.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/models"
)

// Backend names accepted by Open.
const (
	BackendBadger   = "badger"
	BackendDuckDB   = "duckdb"
	BackendPostgres = "postgres"
)

var (
	// ErrNotFound is returned by Get when the report does not exist for the user.
	ErrNotFound = errors.New("report not found")

	// ErrEmptyReport is returned by Insert for a report with no fields.
	ErrEmptyReport = errors.New("report has no fields")

	// ErrNoUser is returned when an operation is called without a user ID.
	ErrNoUser = errors.New("user ID is required")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// ListOptions bounds a List call.
type ListOptions struct {
	// Limit caps the number of reports returned. 0 means no cap.
	Limit int
}

// Store is a per-user report collection.
type Store interface {
	// Insert stores fields as a new report owned by userID. Reserved keys in
	// fields are discarded. The write is atomic.
	Insert(ctx context.Context, userID string, fields models.Fields) (*models.Report, error)

	// List returns userID's reports ordered by CreatedAt, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]models.Report, error)

	// Get returns one of userID's reports or ErrNotFound.
	Get(ctx context.Context, userID, reportID string) (*models.Report, error)

	// Stats counts userID's reports overall and per UTC day from since's
	// day through until's day inclusive.
	Stats(ctx context.Context, userID string, since, until time.Time) (*models.ReportStats, error)

	Ping(ctx context.Context) error
	Close() error

	// Backend returns the backend name.
	Backend() string
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case BackendBadger, "":
		return OpenBadger(cfg.Path)
	case BackendDuckDB:
		return OpenDuckDB(ctx, cfg.Path)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newReport validates input and builds the report to persist.
func newReport(userID string, fields models.Fields, createdAt time.Time) (*models.Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if len(fields) == 0 {
		return nil, ErrEmptyReport
	}
	return &models.Report{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: createdAt,
		Fields:    models.StripReserved(fields),
	}, nil
}

// limitOf converts ListOptions.Limit to a non-negative cap, 0 meaning none.
func limitOf(opts ListOptions) int {
	if opts.Limit < 0 {
		return 0
	}
	return opts.Limit
}

// dayKey formats t as a UTC calendar day.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayWindow returns the half-open range [first day, day after last) that
// Stats counts.
func dayWindow(since, until time.Time) (floor, ceiling time.Time) {
	return startOfDay(since), startOfDay(until).AddDate(0, 0, 1)
}

// buildStats turns per-day counts into ReportStats with one entry for every
// day from since to until, oldest first.
func buildStats(userID string, total int64, latest *time.Time, since, until time.Time, perDay map[string]int64) *models.ReportStats {
	stats := &models.ReportStats{
		UserID: userID,
		Total:  total,
		Since:  startOfDay(since),
		Daily:  []models.DailyCount{},
		Latest: latest,
	}
	last := startOfDay(until)
	for day := stats.Since; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := dayKey(day)
		stats.Daily = append(stats.Daily, models.DailyCount{Date: key, Count: perDay[key]})
	}
	return stats
}
