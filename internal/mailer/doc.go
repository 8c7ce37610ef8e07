// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Package mailer delivers transactional email. It provides a plain
// SMTP implementation, a circuit-breaker wrapper for flaky relays, and
// a log-only implementation for development.
package mailer
