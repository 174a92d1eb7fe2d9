// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reportdesk/internal/auth"
	"github.com/tomtom215/reportdesk/internal/logging"
	"github.com/tomtom215/reportdesk/internal/metrics"
)

// AuthMiddleware verifies bearer tokens with a pluggable verifier.
type AuthMiddleware struct {
	verifier auth.Verifier
}

// NewAuthMiddleware creates an auth middleware for verifier.
func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate requires a valid bearer token and stores the subject in the
// request context. Both failure categories answer 403 with distinct codes:
// UNAUTHENTICATED when no token is presented, INVALID_TOKEN otherwise.
func (m *AuthMiddleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(next, auth.ExtractBearerToken)
}

// AuthenticateWebSocket is Authenticate for the websocket endpoint. Browsers
// cannot set headers on a websocket handshake, so an upgrade request may
// carry the token in the access_token query parameter instead.
func (m *AuthMiddleware) AuthenticateWebSocket(next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(next, extractWebSocketToken)
}

// WebSocketTokenParam is the query parameter read by AuthenticateWebSocket.
const WebSocketTokenParam = "access_token"

func extractWebSocketToken(r *http.Request) string {
	if token := auth.ExtractBearerToken(r); token != "" {
		return token
	}
	if !websocket.IsWebSocketUpgrade(r) {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(WebSocketTokenParam))
}

func (m *AuthMiddleware) authenticate(next http.HandlerFunc, extract func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := extract(r)
		if token == "" {
			metrics.RecordAuthFailure("missing_token")
			logging.Ctx(ctx).Warn().Str("path", r.URL.Path).Msg("Request rejected: no bearer token")
			respondError(w, http.StatusForbidden, ErrCodeUnauthenticated, msgNoToken, nil)
			return
		}

		subject, err := m.verifier.Verify(ctx, token)
		if err != nil {
			reason := failureReason(err)
			metrics.RecordAuthFailure(reason)
			event := logging.Ctx(ctx).Warn()
			if reason == "verifier_unavailable" {
				event = logging.Ctx(ctx).Error()
			}
			event.Err(err).Str("reason", reason).Str("path", r.URL.Path).Msg("Request rejected: token verification failed")
			respondError(w, http.StatusForbidden, ErrCodeInvalidToken, msgInvalidToken, nil)
			return
		}

		ctx = auth.ContextWithSubject(ctx, subject)
		ctx = logging.ContextWithUserID(ctx, subject.ID)
		logging.Ctx(ctx).Debug().Str("auth_method", string(subject.AuthMethod)).Msg("Token verified")
		next(w, r.WithContext(ctx))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredCredentials):
		return "expired_token"
	case errors.Is(err, auth.ErrVerifierUnavailable):
		return "verifier_unavailable"
	default:
		return "invalid_token"
	}
}

// AllowMethods rejects any method not listed with 405 before later stages
// run. The Allow header lists the accepted methods.
func AllowMethods(methods ...string) func(http.Handler) http.Handler {
	allowed := strings.Join(methods, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, m := range methods {
				if r.Method == m {
					next.ServeHTTP(w, r)
					return
				}
			}
			methodNotAllowed(w, r, allowed)
		})
	}
}

// MethodNotAllowed is the router's handler for a known path with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	methodNotAllowed(w, r, "")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	logging.Ctx(r.Context()).Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("Request rejected: method not allowed")
	if allowed != "" {
		w.Header().Set("Allow", allowed)
	}
	respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, msgMethodNotAllowed, nil)
}

// NotFound answers unknown paths with the error envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, ErrCodeNotFound, "Not Found", nil)
}
