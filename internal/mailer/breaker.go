// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package mailer

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/atlastours/identity/internal/logging"
)

// BreakerMailer wraps a Mailer with a circuit breaker so that a dead
// SMTP relay fails reset requests fast instead of tying up handlers on
// connection timeouts.
type BreakerMailer struct {
	inner Mailer
	cb    *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerMailer wraps the given mailer. The circuit opens after 5
// consecutive delivery failures and probes again after 1 minute.
func NewBreakerMailer(inner Mailer) *BreakerMailer {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp-mailer",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("mailer circuit breaker state change")
		},
	})
	return &BreakerMailer{inner: inner, cb: cb}
}

// Send delivers through the breaker. When the circuit is open the
// delivery error is returned immediately without touching the relay.
func (b *BreakerMailer) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Send(ctx, msg)
	})
	return err
}
