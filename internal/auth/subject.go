// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

// Package auth verifies bearer tokens and resolves them to a Subject whose ID
// owns the caller's reports. Two verifiers exist: locally issued HS256 tokens
// and ID tokens from an external OpenID Connect issuer.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// AuthMode names the verifier in use.
type AuthMode string

const (
	// AuthModeJWT verifies HS256 tokens signed with the local secret.
	AuthModeJWT AuthMode = "jwt"

	// AuthModeOIDC verifies ID tokens against an issuer's published keys.
	AuthModeOIDC AuthMode = "oidc"
)

// ParseAuthMode converts a configuration string to an AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(s)) {
	case AuthModeJWT:
		return AuthModeJWT, nil
	case AuthModeOIDC:
		return AuthModeOIDC, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// Standard authentication errors
var (
	// ErrNoCredentials means the request carried no bearer token.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials means the token failed verification.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials means the token verified but has expired.
	ErrExpiredCredentials = errors.New("credentials expired")

	// ErrVerifierUnavailable means the identity provider could not be reached.
	ErrVerifierUnavailable = errors.New("token verifier unavailable")
)

// Verifier resolves a raw bearer token to the subject it identifies.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Subject, error)

	// Mode reports which kind of token the verifier accepts.
	Mode() AuthMode
}

// Subject is a verified caller. ID is the stable user identifier that
// report ownership is keyed on.
type Subject struct {
	ID         string    `json:"id"`
	Username   string    `json:"username,omitempty"`
	Email      string    `json:"email,omitempty"`
	Issuer     string    `json:"issuer,omitempty"`
	AuthMethod AuthMode  `json:"auth_method"`
	IssuedAt   time.Time `json:"issued_at,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

type contextKey string

const subjectContextKey contextKey = "auth_subject"

// ContextWithSubject stores the verified subject on ctx.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns the subject stored by ContextWithSubject, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectContextKey).(*Subject)
	return s
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <t>"
// header, or "" when the header is absent, uses another scheme, or is blank.
func ExtractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
