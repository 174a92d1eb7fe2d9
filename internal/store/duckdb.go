// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/models"
)

// Body is VARCHAR rather than JSON so the store works without loading the
// json extension; documents are encoded and decoded in Go either way.
var duckdbSchema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		report_id  VARCHAR PRIMARY KEY,
		user_id    VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		body       VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_user_created ON reports (user_id, created_at)`,
}

// DuckDBStore keeps reports in a DuckDB file.
type DuckDBStore struct {
	conn  *sql.DB
	clock *Clock
}

// OpenDuckDB opens or creates the database at path. An empty path or
// ":memory:" opens an in-memory database.
func OpenDuckDB(ctx context.Context, path string) (*DuckDBStore, error) {
	dsn := ""
	if path != "" && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dsn = path + "?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false"
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &DuckDBStore{conn: conn, clock: NewClock(nil)}
	if err := s.initialize(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().Str("path", path).Msg("DuckDB report store opened")
	return s, nil
}

func (s *DuckDBStore) initialize(ctx context.Context) error {
	for _, stmt := range duckdbSchema {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	var last sql.NullTime
	if err := s.conn.QueryRowContext(ctx, `SELECT max(created_at) FROM reports`).Scan(&last); err != nil {
		return fmt.Errorf("failed to read clock floor: %w", err)
	}
	if last.Valid {
		s.clock.Observe(last.Time)
	}
	return nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}

// Insert implements Store.
func (s *DuckDBStore) Insert(ctx context.Context, userID string, fields models.Fields) (*models.Report, error) {
	r, err := newReport(userID, fields, s.clock.Next())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO reports (report_id, user_id, created_at, body) VALUES (?, ?, ?, ?)`,
		r.ID, r.UserID, r.CreatedAt, string(body))
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return r, nil
}

// List implements Store.
func (s *DuckDBStore) List(ctx context.Context, userID string, opts ListOptions) ([]models.Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	query := `SELECT report_id, user_id, created_at, body FROM reports WHERE user_id = ? ORDER BY created_at DESC, report_id DESC`
	args := []interface{}{userID}
	if limit := limitOf(opts); limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, userID, reportID string) (*models.Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	row := s.conn.QueryRowContext(ctx,
		`SELECT report_id, user_id, created_at, body FROM reports WHERE user_id = ? AND report_id = ?`,
		userID, reportID)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// Stats implements Store.
func (s *DuckDBStore) Stats(ctx context.Context, userID string, since, until time.Time) (*models.ReportStats, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	var (
		total  int64
		latest sql.NullTime
	)
	if err := s.conn.QueryRowContext(ctx,
		`SELECT count(*), max(created_at) FROM reports WHERE user_id = ?`, userID,
	).Scan(&total, &latest); err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}

	floor, ceiling := dayWindow(since, until)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT strftime(created_at, '%Y-%m-%d') AS day, count(*)
		 FROM reports WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 GROUP BY day`,
		userID, floor, ceiling)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	defer rows.Close()

	perDay, err := scanDailyCounts(rows)
	if err != nil {
		return nil, err
	}
	return buildStats(userID, total, nullTimePtr(latest), since, until, perDay), nil
}

// Ping implements Store.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}

// Backend implements Store.
func (s *DuckDBStore) Backend() string {
	return BackendDuckDB
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r    models.Report
		body string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.CreatedAt, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	if err := json.Unmarshal([]byte(body), &r.Fields); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", r.ID, err)
	}
	return &r, nil
}

func scanDailyCounts(rows *sql.Rows) (map[string]int64, error) {
	perDay := make(map[string]int64)
	for rows.Next() {
		var (
			day   string
			count int64
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		perDay[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan daily counts: %w", err)
	}
	return perDay, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
