// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/models"
)

// Key layout:
//
//	report:{user}:{created nanos, 20 digits}:{reportId} -> report JSON
//	reportid:{user}:{reportId}                          -> primary key
//	meta:last_created                                   -> newest created nanos
//
// {user} is the base64url user ID so a user ID containing ':' cannot reach
// into another user's prefix. Zero-padded nanos sort lexically in time
// order, so a reverse prefix scan yields newest first.
const (
	prefixReport   = "report:"
	prefixReportID = "reportid:"
	keyLastCreated = "meta:last_created"
)

// BadgerStore is the embedded default backend.
type BadgerStore struct {
	db    *badger.DB
	clock *Clock

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens a Badger store at path. An empty path or ":memory:"
// opens an in-memory store.
func OpenBadger(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" || path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerStore{db: db, clock: NewClock(nil)}
	if err := s.seedClock(); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, err
	}

	logging.Info().
		Str("path", path).
		Bool("in_memory", opts.InMemory).
		Msg("Badger report store opened")
	return s, nil
}

func (s *BadgerStore) seedClock() error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyLastCreated))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read clock floor: %w", err)
		}
		return item.Value(func(val []byte) error {
			nanos, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("parse clock floor: %w", err)
			}
			s.clock.Observe(time.Unix(0, nanos))
			return nil
		})
	})
}

func userSegment(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func reportPrefix(userID string) []byte {
	return []byte(prefixReport + userSegment(userID) + ":")
}

func reportKey(r *models.Report) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", prefixReport, userSegment(r.UserID), r.CreatedAt.UnixNano(), r.ID))
}

func reportIDKey(userID, reportID string) []byte {
	return []byte(prefixReportID + userSegment(userID) + ":" + reportID)
}

// createdFromKey extracts the timestamp segment from a primary key.
func createdFromKey(key []byte) (time.Time, error) {
	parts := strings.Split(string(key), ":")
	if len(parts) != 4 {
		return time.Time{}, fmt.Errorf("malformed report key %q", key)
	}
	nanos, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed report key %q: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Insert implements Store.
func (s *BadgerStore) Insert(ctx context.Context, userID string, fields models.Fields) (*models.Report, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := newReport(userID, fields, s.clock.Next())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	primary := reportKey(r)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, data); err != nil {
			return err
		}
		if err := txn.Set(reportIDKey(r.UserID, r.ID), primary); err != nil {
			return err
		}
		return txn.Set([]byte(keyLastCreated), []byte(strconv.FormatInt(r.CreatedAt.UnixNano(), 10)))
	})
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return r, nil
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context, userID string, opts ListOptions) ([]models.Report, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrNoUser
	}

	limit := limitOf(opts)
	reports := []models.Report{}
	prefix := reportPrefix(userID)

	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Reverse = true
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		// Reverse iteration starts at the greatest key <= seek.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r models.Report
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode report %q: %w", it.Item().Key(), err)
			}
			reports = append(reports, r)
			if limit > 0 && len(reports) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, userID, reportID string) (*models.Report, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrNoUser
	}

	var r models.Report
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get(reportIDKey(userID, reportID))
		if err != nil {
			return err
		}
		primary, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(primary)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

// Stats implements Store.
func (s *BadgerStore) Stats(ctx context.Context, userID string, since, until time.Time) (*models.ReportStats, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrNoUser
	}

	var (
		total  int64
		latest *time.Time
		perDay = make(map[string]int64)
		prefix = reportPrefix(userID)
	)
	floor, ceiling := dayWindow(since, until)
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = prefix
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			created, err := createdFromKey(it.Item().Key())
			if err != nil {
				return err
			}
			total++
			c := created
			latest = &c
			if !created.Before(floor) && created.Before(ceiling) {
				perDay[dayKey(created)]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	return buildStats(userID, total, latest, since, until, perDay), nil
}

// Ping implements Store.
func (s *BadgerStore) Ping(_ context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}

// Backend implements Store.
func (s *BadgerStore) Backend() string {
	return BackendBadger
}
