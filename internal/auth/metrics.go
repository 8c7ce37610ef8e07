// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// loginAttempts counts login attempts by outcome:
	// "success", "invalid_credentials", "error".
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// signups counts signup attempts by outcome:
	// "success", "email_taken", "validation", "error".
	signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_signups_total",
			Help: "Total number of signup attempts",
		},
		[]string{"outcome"},
	)

	// resetRequests counts password-reset requests by outcome:
	// "sent", "not_found", "delivery_failed", "error".
	resetRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_password_reset_requests_total",
			Help: "Total number of password-reset requests",
		},
		[]string{"outcome"},
	)

	// resetConsumptions counts reset-token consumptions by outcome:
	// "success", "invalid_or_expired", "validation", "error".
	resetConsumptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_password_reset_consumptions_total",
			Help: "Total number of password-reset token consumptions",
		},
		[]string{"outcome"},
	)

	// tokenVerifications counts session-token verifications in the
	// middleware by outcome: "success", "invalid", "expired", "stale",
	// "no_user".
	tokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_token_verifications_total",
			Help: "Total number of session token verifications",
		},
		[]string{"outcome"},
	)
)
