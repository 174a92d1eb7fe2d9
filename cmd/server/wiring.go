// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/events"
	"github.com/tomtom215/reportdesk/internal/logging"
)

// authComponents is what the selected auth mode contributes to the handler.
type authComponents struct {
	verifier   auth.Verifier
	jwtManager *auth.JWTManager
	localUsers *auth.LocalUsers
}

// initAuth builds the token verifier for cfg.Security.AuthMode. In jwt mode
// it also returns the manager and local users behind the token endpoint.
func initAuth(cfg *config.Config) (*authComponents, error) {
	mode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
		return nil, err
	}

	switch mode {
	case auth.AuthModeOIDC:
		verifier, err := auth.NewOIDCVerifier(&cfg.OIDC)
		if err != nil {
			return nil, fmt.Errorf("init OIDC verifier: %w", err)
		}
		logging.Info().Str("issuer", cfg.OIDC.IssuerURL).Msg("OIDC authentication enabled")
		return &authComponents{verifier: verifier}, nil

	default:
		manager, err := auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("init JWT manager: %w", err)
		}
		users, err := auth.ParseLocalUsers(cfg.Security.LocalUsers)
		if err != nil {
			return nil, fmt.Errorf("parse local users: %w", err)
		}
		logging.Info().Int("local_users", users.Len()).Msg("JWT authentication enabled")
		return &authComponents{
			verifier:   auth.NewJWTVerifier(manager),
			jwtManager: manager,
			localUsers: users,
		}, nil
	}
}

// eventComponents holds the report event pipeline.
type eventComponents struct {
	broker    *events.EmbeddedServer
	bus       *events.Bus
	publisher *events.Publisher
	consumer  *events.Consumer
}

// initEvents starts the embedded NATS server when configured, connects the
// bus, and wires the consumer to sink.
func initEvents(cfg *config.EventsConfig, sink events.Sink) (*eventComponents, error) {
	comps := &eventComponents{}

	var natsURL string
	if cfg.Backend == events.BackendNATS && cfg.NATSEmbedded {
		broker, err := events.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		comps.broker = broker
		natsURL = broker.ClientURL()
	}

	bus, err := events.NewBus(cfg, natsURL, events.NewLogger())
	if err != nil {
		if comps.broker != nil {
			_ = comps.broker.Shutdown(context.Background()) //nolint:errcheck // startup already failed
		}
		return nil, err
	}
	comps.bus = bus

	topic := cfg.Topic
	if topic == "" {
		topic = events.DefaultTopic
	}
	comps.publisher = events.NewPublisher(bus.Publisher, topic, events.DefaultBreakerConfig())
	comps.consumer = events.NewConsumer(bus.Subscriber, topic, sink)
	logging.Info().Str("backend", bus.Backend()).Str("topic", topic).Msg("Report events enabled")
	return comps, nil
}

// Close releases the publisher and bus. The broker is shut down by its
// supervised service.
func (c *eventComponents) Close() {
	c.publisher.Close()
	if err := c.bus.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing event bus")
	}
}
