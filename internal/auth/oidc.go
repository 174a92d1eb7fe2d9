// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/reportdesk/internal/config"
	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/metrics"
)

// errUpstreamStatus marks a key endpoint response the breaker counts as a failure.
var errUpstreamStatus = errors.New("key endpoint returned server error")

// OIDCVerifier verifies ID tokens issued by an external OpenID Connect
// provider. Keys are fetched from the provider's JWKS endpoint through a
// circuit breaker so an unreachable provider fails fast.
type OIDCVerifier struct {
	verifier *rp.IDTokenVerifier
	breaker  *gobreaker.CircuitBreaker[*http.Response]
}

// OIDCOption customizes an OIDCVerifier.
type OIDCOption func(*oidcOptions)

type oidcOptions struct {
	httpClient *http.Client
}

// WithHTTPClient sets the base client used to fetch keys.
func WithHTTPClient(c *http.Client) OIDCOption {
	return func(o *oidcOptions) {
		o.httpClient = c
	}
}

// NewOIDCVerifier builds a verifier for cfg.IssuerURL with cfg.ClientID as
// the expected audience.
func NewOIDCVerifier(cfg *config.OIDCConfig, opts ...OIDCOption) (*OIDCVerifier, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("OIDC client ID is required")
	}

	o := &oidcOptions{httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(o)
	}

	breaker := newKeyEndpointBreaker(cfg)
	base := o.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client := *o.httpClient
	client.Transport = &breakerTransport{base: base, breaker: breaker}

	keySet := rp.NewRemoteKeySet(&client, cfg.JWKSEndpoint())
	return &OIDCVerifier{
		verifier: rp.NewIDTokenVerifier(cfg.IssuerURL, cfg.ClientID, keySet),
		breaker:  breaker,
	}, nil
}

func newKeyEndpointBreaker(cfg *config.OIDCConfig) *gobreaker.CircuitBreaker[*http.Response] {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "oidc-jwks",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
}

// Verify implements Verifier.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Subject, error) {
	if token == "" {
		return nil, ErrNoCredentials
	}

	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, token, v.verifier)
	if err != nil {
		return nil, v.mapVerificationError(err)
	}

	s := &Subject{
		ID:         claims.GetSubject(),
		Username:   claims.PreferredUsername,
		Email:      claims.Email,
		Issuer:     claims.GetIssuer(),
		AuthMethod: AuthModeOIDC,
		IssuedAt:   claims.GetIssuedAt(),
		ExpiresAt:  claims.GetExpiration(),
	}
	if s.Username == "" {
		s.Username = s.ID
	}
	return s, nil
}

// Mode implements Verifier.
func (v *OIDCVerifier) Mode() AuthMode {
	return AuthModeOIDC
}

// BreakerState reports the key endpoint breaker state. Health shows it.
func (v *OIDCVerifier) BreakerState() gobreaker.State {
	return v.breaker.State()
}

func (v *OIDCVerifier) mapVerificationError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
		v.breaker.State() == gobreaker.StateOpen || v.breaker.Counts().ConsecutiveFailures > 0 {
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	if errors.Is(err, oidc.ErrExpired) || strings.Contains(strings.ToLower(err.Error()), "expired") {
		return ErrExpiredCredentials
	}
	return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
}

// breakerTransport routes key fetches through the circuit breaker. Transport
// errors and 5xx responses count as failures.
type breakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var upstream *http.Response
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			upstream = resp
			return nil, fmt.Errorf("%w: %d", errUpstreamStatus, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil && upstream != nil {
		// Hand the caller the real response so it can report the status.
		return upstream, nil
	}
	return resp, err
}
