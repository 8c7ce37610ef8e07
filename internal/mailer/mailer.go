// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package mailer

import (
	"context"

	"github.com/atlastours/identity/internal/logging"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Implementations must honor the context
// deadline and return an error when delivery cannot be confirmed.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
// Used in development when no SMTP relay is configured.
type LogMailer struct{}

// Send logs the message and succeeds.
func (LogMailer) Send(_ context.Context, msg Message) error {
	logging.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail delivery disabled, logging message")
	return nil
}
