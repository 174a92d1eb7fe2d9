// Reportdesk - Report Persistence and Progress Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reportdesk

package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestLocalUsers(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users, err := ParseLocalUsers([]string{"alice:" + hash, " "})
	if err != nil {
		t.Fatalf("ParseLocalUsers() error = %v", err)
	}
	if users.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", users.Len())
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"correct", "alice", "s3cret", false},
		{"wrong password", "alice", "nope", true},
		{"unknown user", "bob", "s3cret", true},
		{"empty password", "alice", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.Authenticate(tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Authenticate() error = %v", err)
			}
		})
	}
}

func TestParseLocalUsers_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"no separator", "alice"},
		{"empty name", ":hash"},
		{"not bcrypt", "alice:plaintext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLocalUsers([]string{tt.entry}); err == nil {
				t.Error("ParseLocalUsers() expected error")
			}
		})
	}
}

func TestLocalUsers_Nil(t *testing.T) {
	var users *LocalUsers
	if users.Len() != 0 {
		t.Error("nil LocalUsers should have zero length")
	}
	if err := users.Authenticate("alice", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v", err)
	}
}
