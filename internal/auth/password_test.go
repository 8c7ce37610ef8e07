// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher(t *testing.T) {
	tests := []struct {
		name    string
		cost    int
		wantErr bool
	}{
		{name: "minimum cost", cost: bcrypt.MinCost},
		{name: "production cost", cost: 12},
		{name: "below minimum", cost: bcrypt.MinCost - 1, wantErr: true},
		{name: "above maximum", cost: bcrypt.MaxCost + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHasher(tt.cost)
			if tt.wantErr {
				if err == nil {
					t.Error("NewHasher() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHasher() unexpected error = %v", err)
			}
			if h == nil {
				t.Fatal("NewHasher() returned nil hasher")
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	// MinCost keeps the test fast; correctness is cost-independent.
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}

	digest, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if digest == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !strings.HasPrefix(digest, "$2a$") {
		t.Errorf("Hash() = %q, want bcrypt format", digest)
	}

	if !h.Verify("correct horse battery staple", digest) {
		t.Error("Verify() rejected the correct password")
	}
	if h.Verify("wrong password", digest) {
		t.Error("Verify() accepted a wrong password")
	}
	if h.Verify("correct horse battery staple", "not-a-digest") {
		t.Error("Verify() accepted a malformed digest")
	}
}

func TestHashIsSalted(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}

	a, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical, salting is broken")
	}
}
