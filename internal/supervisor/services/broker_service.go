// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package services

import (
	"context"
	"errors"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/reportdesk/internal/logging"
)

// Broker is satisfied by *events.EmbeddedServer. It is started before the
// tree so publishers can connect during wiring.
type Broker interface {
	ClientURL() string
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// errBrokerStopped is returned when the broker dies underneath the tree.
var errBrokerStopped = errors.New("embedded NATS server stopped unexpectedly")

// BrokerService owns the embedded NATS server's shutdown and watches it.
// The server cannot be restarted in place, so a dead broker ends the
// service for good and the clients' reconnect loop takes over.
type BrokerService struct {
	broker          Broker
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewBrokerService wraps broker.
func NewBrokerService(broker Broker) *BrokerService {
	return &BrokerService{
		broker:          broker,
		checkInterval:   5 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
}

// Serve implements suture.Service.
func (s *BrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS shutdown incomplete")
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.broker.IsRunning() {
				logging.Error().Str("url", s.broker.ClientURL()).Msg("Embedded NATS server is not running")
				return errors.Join(errBrokerStopped, suture.ErrDoNotRestart)
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *BrokerService) String() string {
	return "embedded-nats"
}
