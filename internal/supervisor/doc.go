// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

/*
Package supervisor runs Reportdesk's long-lived services under suture v4.

	RootSupervisor ("reportdesk")
	├── DataSupervisor ("data-layer")
	│   └── progress.Registry (session sweeper)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService (websocket fan-out)
	│   ├── BrokerService (embedded NATS, if enabled)
	│   └── events.Consumer (report_saved to websocket)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A service that returns an error is restarted with backoff. Returning
suture.ErrDoNotRestart stops it for good. Canceling the context passed to
Serve stops every service, each within TreeConfig.ShutdownTimeout.

Supervisor events are logged through sutureslog to the slog bridge of the
zerolog logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(registry)
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
