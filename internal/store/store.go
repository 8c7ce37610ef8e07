// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package store

import (
	"context"
	"errors"

	"github.com/atlastours/identity/internal/models"
)

// Store errors.
var (
	// ErrUserNotFound indicates no active record matched the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates a create would violate email uniqueness.
	ErrEmailTaken = errors.New("email already registered")
)

// UserStore defines the persistence operations the authentication flows
// require. Implementations must enforce email uniqueness, exclude
// inactive records from every find operation, and strip the hidden
// credential fields from default projections.
type UserStore interface {
	// Create persists a new record. Returns ErrEmailTaken if the
	// normalized email is already registered.
	Create(ctx context.Context, user *models.User) error

	// FindByID returns the active record with the given id, default
	// projection (hidden fields stripped).
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail returns the active record with the given normalized
	// email. includeSecrets opts in to the hidden credential fields,
	// mirroring the explicit projection the login path needs.
	FindByEmail(ctx context.Context, email string, includeSecrets bool) (*models.User, error)

	// FindByResetHash returns the active record whose stored reset-token
	// hash equals the given value, including hidden fields. Expiry is
	// the caller's check.
	FindByResetHash(ctx context.Context, hash string) (*models.User, error)

	// Update persists changes to an existing record, maintaining the
	// email and reset-hash lookup indexes.
	Update(ctx context.Context, user *models.User) error
}
