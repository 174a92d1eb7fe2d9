// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id  TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	body       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_user_created ON reports (user_id, created_at DESC);
`

// PostgresStore keeps reports in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock *Clock
}

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, clock: NewClock(nil)}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("Postgres report store opened")
	return s, nil
}

func (s *PostgresStore) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	var last *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT max(created_at) FROM reports`).Scan(&last); err != nil {
		return fmt.Errorf("failed to read clock floor: %w", err)
	}
	if last != nil {
		s.clock.Observe(*last)
	}
	return nil
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, userID string, fields models.Fields) (*models.Report, error) {
	r, err := newReport(userID, fields, s.clock.Next())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (report_id, user_id, created_at, body) VALUES ($1, $2, $3, $4::jsonb)`,
		r.ID, r.UserID, r.CreatedAt, string(body))
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return r, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, userID string, opts ListOptions) ([]models.Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	query := `SELECT report_id, user_id, created_at, body::text FROM reports WHERE user_id = $1 ORDER BY created_at DESC, report_id DESC`
	args := []interface{}{userID}
	if limit := limitOf(opts); limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	reports, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Report, error) {
		r, err := scanPgReport(row)
		if err != nil {
			return models.Report{}, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, userID, reportID string) (*models.Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	row := s.pool.QueryRow(ctx,
		`SELECT report_id, user_id, created_at, body::text FROM reports WHERE user_id = $1 AND report_id = $2`,
		userID, reportID)
	r, err := scanPgReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context, userID string, since, until time.Time) (*models.ReportStats, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	var (
		total  int64
		latest *time.Time
	)
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*), max(created_at) FROM reports WHERE user_id = $1`, userID,
	).Scan(&total, &latest); err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	if latest != nil {
		utc := latest.UTC()
		latest = &utc
	}

	floor, ceiling := dayWindow(since, until)
	rows, err := s.pool.Query(ctx,
		`SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, count(*)
		 FROM reports WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		 GROUP BY day`,
		userID, floor, ceiling)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	defer rows.Close()

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
		return nil, fmt.Errorf("report stats: %w", err)
	}
	return buildStats(userID, total, latest, since, until, perDay), nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Backend implements Store.
func (s *PostgresStore) Backend() string {
	return BackendPostgres
}

func scanPgReport(row pgx.Row) (*models.Report, error) {
	var (
		r    models.Report
		body string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.CreatedAt, &body); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	if err := json.Unmarshal([]byte(body), &r.Fields); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", r.ID, err)
	}
	return &r, nil
}
