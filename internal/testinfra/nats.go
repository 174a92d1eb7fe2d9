// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

//go:build integration

package testinfra

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultNATSImage is the image used by NewNATSContainer.
const DefaultNATSImage = "nats:2.12-alpine"

const natsPort = "4222/tcp"

// NATSContainer is a running standalone NATS server.
type NATSContainer struct {
	testcontainers.Container
	URL string
}

// NewNATSContainer starts a NATS server and waits for its client port.
func NewNATSContainer(ctx context.Context) (*NATSContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultNATSImage,
		ExposedPorts: []string{natsPort},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(natsPort),
			wait.ForLog("Server is ready"),
		).WithStartupTimeout(30 * time.Second),
	}

	container, addr, err := startContainer(ctx, req, natsPort)
	if err != nil {
		return nil, err
	}
	return &NATSContainer{Container: container, URL: "nats://" + addr}, nil
}
