// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

// Package config loads Reportdesk configuration from defaults, an optional
// YAML file, an optional .env file, and environment variables, in that order
// of increasing precedence.
package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	OIDC     OIDCConfig     `koanf:"oidc"`
	Store    StoreConfig    `koanf:"store"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds authentication, CORS, and rate limiting settings.
type SecurityConfig struct {
	// AuthMode selects the token verifier: "jwt" (HS256, locally issued)
	// or "oidc" (ID tokens from an external issuer).
	AuthMode  string        `koanf:"auth_mode"`
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// LocalUsers are "username:bcrypt-hash" pairs accepted by the token
	// endpoint in jwt mode. Empty disables the endpoint.
	LocalUsers []string `koanf:"local_users"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// OIDCConfig configures ID token verification against an external issuer.
type OIDCConfig struct {
	IssuerURL string `koanf:"issuer_url"`
	ClientID  string `koanf:"client_id"` // expected audience
	JWKSURL   string `koanf:"jwks_url"`

	// Circuit breaker around the issuer's key endpoint.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// StoreConfig selects and configures the report store backend.
type StoreConfig struct {
	Backend string `koanf:"backend"` // badger, duckdb, postgres
	Path    string `koanf:"path"`    // badger directory or duckdb file
	DSN     string `koanf:"dsn"`     // postgres connection string

	// ListLimit caps how many reports a list returns. 0 means no cap.
	ListLimit int `koanf:"list_limit"`
}

// EventsConfig configures report event fan-out.
type EventsConfig struct {
	Backend      string `koanf:"backend"` // memory, nats
	Topic        string `koanf:"topic"`
	NATSURL      string `koanf:"nats_url"`
	NATSEmbedded bool   `koanf:"nats_embedded"`
	NATSHost     string `koanf:"nats_host"`
	NATSPort     int    `koanf:"nats_port"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration using the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// JWKSEndpoint returns the configured JWKS URL or the issuer's conventional one.
func (o OIDCConfig) JWKSEndpoint() string {
	if o.JWKSURL != "" {
		return o.JWKSURL
	}
	return strings.TrimRight(o.IssuerURL, "/") + "/.well-known/jwks.json"
}
