// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is a member of the closed role set. Free-form roles are rejected
// at parse time; authorization checks are explicit set membership.
type Role string

// The closed role set, least to most privileged.
const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ParseRole validates and returns a Role from its string form.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User is the persisted credential record: identity, password hash, role,
// reset-token state, and the password-rotation timestamp that retroactively
// invalidates previously issued session tokens.
//
// PasswordHash and ResetTokenHash never appear in any serialized
// representation; the store additionally strips them from default
// projections.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	PasswordHash string `json:"-"`

	// PasswordChangedAt is set whenever PasswordHash rotates.
	// Once set it only moves forward.
	PasswordChangedAt *time.Time `json:"-"`

	// ResetTokenHash and ResetTokenExpiry are both present or both
	// absent, until the token is consumed or superseded.
	ResetTokenHash   string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	// Active is the soft-delete flag. Inactive records are excluded
	// from every lookup the authentication paths use.
	Active bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail lowercases and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ChangedPasswordAfter reports whether the password was rotated after the
// given token issue time. JWT issued-at claims carry second granularity,
// so the comparison is done on Unix seconds.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// MarkPasswordChanged records a password rotation. The timestamp is set
// one second in the past so a session token issued immediately after the
// rotation (within the same second) is not rejected as stale.
func (u *User) MarkPasswordChanged(now time.Time) {
	t := now.Add(-time.Second)
	if u.PasswordChangedAt != nil && u.PasswordChangedAt.After(t) {
		return
	}
	u.PasswordChangedAt = &t
}

// ApplyResetToken stores an outstanding reset token's hash and expiry.
// Any previously stored token is superseded.
func (u *User) ApplyResetToken(hash string, expiry time.Time) {
	u.ResetTokenHash = hash
	u.ResetTokenExpiry = &expiry
}

// ClearResetToken removes the outstanding reset token, keeping the
// both-or-neither invariant on the two fields.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = nil
}

// ResetTokenValid reports whether an outstanding reset token exists and
// has not passed its expiry.
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.ResetTokenHash != "" && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
}

// StripSecrets zeroes the hidden credential fields. Store implementations
// call this for default projections, mirroring the explicit opt-in needed
// to read the password hash.
func (u *User) StripSecrets() {
	u.PasswordHash = ""
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = nil
}

// Clone returns a deep copy of the record.
func (u *User) Clone() *User {
	c := *u
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		c.PasswordChangedAt = &t
	}
	if u.ResetTokenExpiry != nil {
		t := *u.ResetTokenExpiry
		c.ResetTokenExpiry = &t
	}
	return &c
}
