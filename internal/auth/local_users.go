// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that both
// paths spend the same bcrypt time.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z2lFJ1XJ1UH6p6z6RPSUwy2W")

// LocalUsers holds username to bcrypt hash pairs for the token endpoint.
type LocalUsers struct {
	hashes map[string][]byte
}

// ParseLocalUsers parses "username:bcrypt-hash" entries.
func ParseLocalUsers(entries []string) (*LocalUsers, error) {
	u := &LocalUsers{hashes: make(map[string][]byte, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, hash, ok := strings.Cut(entry, ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("invalid local user entry %q: expected username:hash", entry)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for user %q: %w", name, err)
		}
		u.hashes[name] = []byte(hash)
	}
	return u, nil
}

// Len returns the number of configured users.
func (u *LocalUsers) Len() int {
	if u == nil {
		return 0
	}
	return len(u.hashes)
}

// Authenticate checks a username and password. It returns
// ErrInvalidCredentials for an unknown user or a wrong password.
func (u *LocalUsers) Authenticate(username, password string) error {
	if u == nil || username == "" || password == "" {
		return ErrInvalidCredentials
	}
	hash, known := u.hashes[username]
	if !known {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password)) //nolint:errcheck // timing only
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for LOCAL_USERS.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
