// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/logging"
)

// Backends
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

const (
	maxReconnects   = -1
	reconnectWait   = 2 * time.Second
	reconnectBuffer = 8 * 1024 * 1024
	closeTimeout    = 10 * time.Second
)

// Bus holds the publisher and subscriber for one transport.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	backend    string
}

// NewLogger adapts the global zerolog logger for Watermill.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// NewBus connects the configured transport. natsURL overrides
// cfg.NATSURL, which is how an embedded server's address is passed in.
func NewBus(cfg *config.EventsConfig, natsURL string, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = NewLogger()
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryBus(logger), nil
	case BackendNATS:
		if natsURL == "" {
			natsURL = cfg.NATSURL
		}
		return newNATSBus(natsURL, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewMemoryBus returns an in-process bus backed by gochannel.
func NewMemoryBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Bus{Publisher: ch, Subscriber: ch, backend: BackendMemory}
}

func natsOptions(logger watermill.LoggerAdapter, role string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("reportdesk-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.ReconnectBufSize(reconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"role": role, "url": nc.ConnectedUrl()})
		}),
	}
}

func newNATSBus(url string, logger watermill.LoggerAdapter) (*Bus, error) {
	if url == "" {
		return nil, errors.New("nats events backend requires a server URL")
	}
	// Report events are live notifications; core NATS is enough.
	jsCfg := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions(logger, "publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsCfg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     closeTimeout,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOptions(logger, "subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jsCfg,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &Bus{Publisher: pub, Subscriber: sub, backend: BackendNATS}, nil
}

// Backend returns memory or nats.
func (b *Bus) Backend() string {
	return b.backend
}

// Close closes the publisher then the subscriber. A gochannel bus is closed once.
func (b *Bus) Close() error {
	err := b.Publisher.Close()
	if b.backend == BackendMemory {
		return err
	}
	return errors.Join(err, b.Subscriber.Close())
}
