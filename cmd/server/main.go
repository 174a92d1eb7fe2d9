// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/reportdesk/docs" // swagger document
	"github.com/tomtom215/reportdesk/internal/api"
	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/progress"
	"github.com/tomtom215/reportdesk/internal/store"
	"github.com/tomtom215/reportdesk/internal/supervisor"
	"github.com/tomtom215/reportdesk/internal/supervisor/services"
	ws "github.com/tomtom215/reportdesk/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", api.Version).
		Str("store", cfg.Store.Backend).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("events", cfg.Events.Backend).
		Msg("Starting Reportdesk")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Reportdesk stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, &cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing report store")
		}
	}()
	logging.Info().Str("backend", st.Backend()).Msg("Report store opened")

	authComps, err := initAuth(cfg)
	if err != nil {
		return err
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.HasWildcardCORS() && cfg.IsProduction() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}

	wsHub := ws.NewHub()
	registry := progress.NewRegistry(progress.DefaultRegistryConfig(), wsHub)

	eventComps, err := initEvents(&cfg.Events, wsHub)
	if err != nil {
		return err
	}
	defer eventComps.Close()

	handler := api.NewHandler(cfg, st, registry, wsHub)
	handler.SetEventPublisher(eventComps.publisher)
	handler.SetVerifier(authComps.verifier)
	if authComps.jwtManager != nil {
		handler.SetTokenIssuer(authComps.jwtManager, authComps.localUsers)
	}

	router := api.NewRouter(
		handler,
		api.NewAuthMiddleware(authComps.verifier),
		api.NewChiMiddleware(api.NewChiMiddlewareConfig(&cfg.Security)),
	)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// zerolog bridged to slog for sutureslog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return err
	}

	tree.AddDataService(registry)
	tree.AddMessagingService(services.NewHubService(wsHub))
	if eventComps.broker != nil {
		tree.AddMessagingService(services.NewBrokerService(eventComps.broker))
	}
	tree.AddMessagingService(eventComps.consumer)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
