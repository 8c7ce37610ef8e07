// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlastours/identity/internal/logging"
	"github.com/atlastours/identity/internal/mailer"
	"github.com/atlastours/identity/internal/models"
	"github.com/atlastours/identity/internal/store"
)

// Session is the result of a successful authentication operation: the
// signed token plus the public projection of the account it names.
type Session struct {
	Token string
	User  *models.User
}

// Service implements the account lifecycle: signup, login, the
// password-reset flow, and authenticated password changes.
type Service struct {
	users     store.UserStore
	mail      mailer.Mailer
	tokens    *TokenManager
	hasher    *Hasher
	resetTTL  time.Duration
	publicURL string
	log       zerolog.Logger
}

// NewService wires the account service.
func NewService(users store.UserStore, mail mailer.Mailer, tokens *TokenManager, hasher *Hasher, resetTTL time.Duration, publicURL string) *Service {
	return &Service{
		users:     users,
		mail:      mail,
		tokens:    tokens,
		hasher:    hasher,
		resetTTL:  resetTTL,
		publicURL: publicURL,
		log:       logging.With().Str("component", "auth-service").Logger(),
	}
}

// SignupParams are the fields accepted at registration. Role is
// deliberately absent: every new account starts as a regular user and
// elevation is a separate admin operation.
type SignupParams struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// Signup registers a new account and logs it in.
func (s *Service) Signup(ctx context.Context, p SignupParams) (*Session, error) {
	if p.Password != p.PasswordConfirm {
		signups.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	digest, err := s.hasher.Hash(p.Password)
	if err != nil {
		signups.WithLabelValues("error").Inc()
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         p.Name,
		Email:        models.NormalizeEmail(p.Email),
		Role:         models.RoleUser,
		PasswordHash: digest,
		Active:       true,
		CreatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			signups.WithLabelValues("email_taken").Inc()
		} else {
			signups.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		signups.WithLabelValues("error").Inc()
		return nil, err
	}

	signups.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("account created")
	return &Session{Token: token, User: publicProjection(user)}, nil
}

// Login authenticates an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		loginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email), true)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			loginAttempts.WithLabelValues("invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		}
		loginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		loginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		loginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	loginAttempts.WithLabelValues("success").Inc()
	return &Session{Token: token, User: publicProjection(user)}, nil
}

// RequestReset starts the password-reset flow for the account with the
// given email: it mints a single-use token, persists its hash with an
// expiry, and emails the plaintext to the account. If delivery fails
// the stored token state is rolled back so a half-issued token cannot
// linger.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email), false)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			resetRequests.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		resetRequests.WithLabelValues("error").Inc()
		return err
	}

	plaintext, hash, err := GenerateResetToken()
	if err != nil {
		resetRequests.WithLabelValues("error").Inc()
		return err
	}

	user.ApplyResetToken(hash, time.Now().Add(s.resetTTL))
	if err := s.users.Update(ctx, user); err != nil {
		resetRequests.WithLabelValues("error").Inc()
		return err
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 minutes)",
		Body: fmt.Sprintf(
			"Forgot your password? Submit a request with your new password to:\n\n%s/api/v1/users/reset-password/%s\n\nIf you didn't forget your password, please ignore this email.",
			s.publicURL, plaintext,
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		// Roll back so the account is not left holding a token the
		// user never received.
		user.ClearResetToken()
		if rbErr := s.users.Update(ctx, user); rbErr != nil {
			s.log.Error().Err(rbErr).Str("user_id", user.ID).Msg("failed to roll back reset token after delivery failure")
		}
		resetRequests.WithLabelValues("delivery_failed").Inc()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	resetRequests.WithLabelValues("sent").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("password reset token issued")
	return nil
}

// ResetPassword consumes a reset token: it looks the account up by the
// token's hash, checks the expiry window, sets the new password, clears
// the token, records the change time, and logs the account in. The
// token is single-use; consumption and expiry both invalidate it.
func (s *Service) ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*Session, error) {
	if password != passwordConfirm {
		resetConsumptions.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	user, err := s.users.FindByResetHash(ctx, HashResetToken(token))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			resetConsumptions.WithLabelValues("invalid_or_expired").Inc()
			return nil, ErrInvalidResetToken
		}
		resetConsumptions.WithLabelValues("error").Inc()
		return nil, err
	}

	if !user.ResetTokenValid(time.Now()) {
		resetConsumptions.WithLabelValues("invalid_or_expired").Inc()
		return nil, ErrInvalidResetToken
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		resetConsumptions.WithLabelValues("error").Inc()
		return nil, err
	}

	user.PasswordHash = digest
	user.ClearResetToken()
	user.MarkPasswordChanged(time.Now())
	if err := s.users.Update(ctx, user); err != nil {
		resetConsumptions.WithLabelValues("error").Inc()
		return nil, err
	}

	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		resetConsumptions.WithLabelValues("error").Inc()
		return nil, err
	}

	resetConsumptions.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return &Session{Token: session, User: publicProjection(user)}, nil
}

// UpdatePassword changes an authenticated account's password after
// re-verifying the current one, then issues a fresh session so the
// caller survives its own stale-token invalidation.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (*Session, error) {
	if password != passwordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	// FindByID strips secrets; reload with the password hash through
	// the email lookup.
	user, err = s.users.FindByEmail(ctx, user.Email, true)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if !s.hasher.Verify(current, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = digest
	user.MarkPasswordChanged(time.Now())
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password updated")
	return &Session{Token: token, User: publicProjection(user)}, nil
}

// ChangeRole sets an account's role. Authorization (admin only) is
// enforced at the transport layer via RestrictTo.
func (s *Service) ChangeRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Reload with secrets so Update does not wipe the stored hash.
	user, err = s.users.FindByEmail(ctx, user.Email, true)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("role changed")
	return publicProjection(user), nil
}

// publicProjection returns a copy of the record safe for serialization.
func publicProjection(u *models.User) *models.User {
	pub := u.Clone()
	pub.StripSecrets()
	return pub
}
