// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/atlastours/identity/internal/logging"
	"github.com/atlastours/identity/internal/models"
	"github.com/atlastours/identity/internal/store"
)

type contextKey string

// IdentityContextKey is the request-context key under which Protect and
// IsLoggedIn attach the authenticated identity.
const IdentityContextKey contextKey = "identity"

// Identity is the authenticated principal attached to the request
// context. It carries no credential material.
type Identity struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// GetIdentity returns the identity attached to the context, or nil.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(IdentityContextKey).(*Identity)
	return id
}

// Guard provides the authentication and authorization middleware.
type Guard struct {
	tokens     *TokenManager
	users      store.UserStore
	cookieName string
}

// NewGuard creates the middleware set around a token manager and the
// credential store.
func NewGuard(tokens *TokenManager, users store.UserStore, cookieName string) *Guard {
	if cookieName == "" {
		cookieName = "jwt"
	}
	return &Guard{
		tokens:     tokens,
		users:      users,
		cookieName: cookieName,
	}
}

// Protect enforces authentication. It extracts a candidate token
// (Authorization: Bearer preferred, session cookie as fallback),
// verifies it, loads the credential record, rejects tokens issued
// before the last password change, and attaches the identity to the
// request context. Every failure is a 401.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.resolveIdentity(r)
		if err != nil {
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			respondError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsLoggedIn runs the same verification as Protect but never fails the
// request: on any failure the request continues without an identity.
// It must not gate privileged actions.
func (g *Guard) IsLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, err := g.resolveIdentity(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), IdentityContextKey, identity))
		}
		next.ServeHTTP(w, r)
	})
}

// RestrictTo authorizes the attached identity against an allowed-role
// set. It must run after Protect; a request without an identity is a
// caller contract violation and is rejected outright.
func (g *Guard) RestrictTo(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				// RestrictTo without Protect is a wiring bug, not a
				// recoverable request error.
				logging.Error().Str("path", r.URL.Path).Msg("RestrictTo invoked without authenticated identity")
				respondError(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}

			if !allowed[identity.Role] {
				respondError(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveIdentity performs token extraction, verification, record load,
// and the stale-token check.
func (g *Guard) resolveIdentity(r *http.Request) (*Identity, error) {
	tokenString, err := g.extractToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := g.tokens.Verify(tokenString)
	if err != nil {
		switch err {
		case ErrTokenExpired:
			tokenVerifications.WithLabelValues("expired").Inc()
		default:
			tokenVerifications.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	user, err := g.users.FindByID(r.Context(), claims.Subject)
	if err != nil {
		// Covers deleted and deactivated accounts; the store filters
		// active=false.
		tokenVerifications.WithLabelValues("no_user").Inc()
		return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}

	// A password rotation invalidates every token issued before it,
	// without any server-side revocation list.
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		tokenVerifications.WithLabelValues("stale").Inc()
		return nil, fmt.Errorf("%w: password changed after token was issued", ErrUnauthenticated)
	}

	tokenVerifications.WithLabelValues("success").Inc()
	return &Identity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// extractToken returns the candidate session token from the
// Authorization header, falling back to the session cookie.
func (g *Guard) extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
		}
		return parts[1], nil
	}

	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("%w: no token supplied", ErrUnauthenticated)
	}
	return cookie.Value, nil
}
