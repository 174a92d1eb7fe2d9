// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/metrics"
	"github.com/tomtom215/reportdesk/internal/models"
)

// Sink receives decoded report_saved events.
type Sink interface {
	BroadcastReportSaved(event models.ReportSavedEvent)
}

// Consumer forwards report_saved events to a Sink. It implements
// suture.Service.
type Consumer struct {
	subscriber message.Subscriber
	topic      string
	sink       Sink
}

// NewConsumer creates a consumer. An empty topic means DefaultTopic.
func NewConsumer(sub message.Subscriber, topic string, sink Sink) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Consumer{subscriber: sub, topic: topic, sink: sink}
}

// Serve subscribes and processes messages until ctx is done. A closed
// subscription before that is an error so the supervisor restarts it.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}
	logging.Info().Str("topic", c.topic).Msg("Report event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", c.topic)
			}
			c.handle(msg)
		}
	}
}

// handle acks every message; a malformed payload is logged and dropped
// because redelivery cannot fix it.
func (c *Consumer) handle(msg *message.Message) {
	defer msg.Ack()

	event, err := DecodeReportSaved(msg)
	if err != nil {
		logging.Warn().Err(err).Str("topic", c.topic).Msg("Dropping malformed report event")
		return
	}
	metrics.EventsConsumed.Inc()
	if c.sink != nil {
		c.sink.BroadcastReportSaved(event)
	}
	logging.Debug().
		Str("report_id", event.ReportID).
		Str("user_id", event.UserID).
		Str("request_id", msg.Metadata.Get("request_id")).
		Msg("Report event forwarded")
}

// String implements fmt.Stringer for supervisor logs.
func (c *Consumer) String() string {
	return "report-event-consumer"
}
