// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import "errors"

// Flow errors. Every flow returns one of these (possibly wrapped with
// detail); handlers map them to HTTP statuses.
var (
	// ErrUnauthenticated covers missing, invalid, expired, and stale
	// session tokens, and tokens whose account no longer exists.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden indicates an authenticated identity whose role is
	// not in the allowed set.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidCredentials covers login and password-update mismatch.
	// Unknown account and wrong password are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrValidation covers malformed input, including mismatched
	// password confirmation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a reset request for an unknown email.
	ErrNotFound = errors.New("no user with that email")

	// ErrInvalidResetToken covers never-requested, wrong, and expired
	// reset tokens, indistinguishably.
	ErrInvalidResetToken = errors.New("reset token is invalid or has expired")

	// ErrDeliveryFailed indicates the reset email could not be sent;
	// the stored reset state has been rolled back.
	ErrDeliveryFailed = errors.New("failed to send reset email")
)

// Token errors returned by the Verifier.
var (
	// ErrTokenInvalid indicates a tampered, garbled, or wrongly signed
	// token.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired indicates a well-formed token past its lifetime.
	ErrTokenExpired = errors.New("token has expired")
)
