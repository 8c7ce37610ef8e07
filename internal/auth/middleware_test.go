// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atlastours/identity/internal/models"
	"github.com/atlastours/identity/internal/store"
)

func seedUser(t *testing.T, users store.UserStore, u *models.User) {
	t.Helper()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.Active = true
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestProtect(t *testing.T) {
	tokens := newTestTokenManager(t, time.Hour)
	users := store.NewMemoryStore()
	guard := NewGuard(tokens, users, "jwt")

	seedUser(t, users, &models.User{
		ID:    "user-1",
		Name:  "Jo",
		Email: "jo@example.com",
	})

	validToken, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	orphanToken, err := tokens.Issue("no-such-user")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name       string
		setRequest func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "no token",
			setRequest: func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "valid bearer token",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+validToken)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "valid cookie",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "jwt", Value: validToken})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "malformed authorization header",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Token "+validToken)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "garbage token",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer not.a.token")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token via header",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+expiredToken)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token for deleted account",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+orphanToken)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "header takes precedence over cookie",
			setRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer not.a.token")
				r.AddCookie(&http.Cookie{Name: "jwt", Value: validToken})
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setRequest(req)
			rec := httptest.NewRecorder()

			guard.Protect(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestProtectAttachesIdentity(t *testing.T) {
	tokens := newTestTokenManager(t, time.Hour)
	users := store.NewMemoryStore()
	guard := NewGuard(tokens, users, "jwt")

	seedUser(t, users, &models.User{
		ID:    "user-1",
		Name:  "Jo",
		Email: "jo@example.com",
		Role:  models.RoleGuide,
	})

	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var got *Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	guard.Protect(handler).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("no identity attached")
	}
	if got.ID != "user-1" || got.Email != "jo@example.com" || got.Role != models.RoleGuide {
		t.Errorf("identity = %+v", got)
	}
}

func TestProtectRejectsStaleToken(t *testing.T) {
	tokens := newTestTokenManager(t, time.Hour)
	users := store.NewMemoryStore()
	guard := NewGuard(tokens, users, "jwt")

	seedUser(t, users, &models.User{
		ID:    "user-1",
		Email: "jo@example.com",
	})

	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Rotate the password well after the token was issued.
	u, err := users.FindByEmail(context.Background(), "jo@example.com", true)
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	changed := time.Now().Add(time.Hour)
	u.PasswordChangedAt = &changed
	if err := users.Update(context.Background(), u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guard.Protect(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d for stale token", rec.Code, http.StatusUnauthorized)
	}
}

func TestIsLoggedInNeverFails(t *testing.T) {
	tokens := newTestTokenManager(t, time.Hour)
	users := store.NewMemoryStore()
	guard := NewGuard(tokens, users, "jwt")

	seedUser(t, users, &models.User{ID: "user-1", Email: "jo@example.com"})
	token, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name         string
		setRequest   func(r *http.Request)
		wantIdentity bool
	}{
		{
			name:         "no token",
			setRequest:   func(*http.Request) {},
			wantIdentity: false,
		},
		{
			name: "invalid token",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "jwt", Value: "not.a.token"})
			},
			wantIdentity: false,
		},
		{
			name: "valid token",
			setRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "jwt", Value: token})
			},
			wantIdentity: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Identity
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetIdentity(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/page", nil)
			tt.setRequest(req)
			rec := httptest.NewRecorder()
			guard.IsLoggedIn(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, IsLoggedIn must never fail the request", rec.Code)
			}
			if (got != nil) != tt.wantIdentity {
				t.Errorf("identity attached = %v, want %v", got != nil, tt.wantIdentity)
			}
		})
	}
}

func TestRestrictTo(t *testing.T) {
	guard := NewGuard(newTestTokenManager(t, time.Hour), store.NewMemoryStore(), "jwt")

	tests := []struct {
		name       string
		identity   *Identity
		allowed    []models.Role
		wantStatus int
	}{
		{
			name:       "role in set",
			identity:   &Identity{ID: "u1", Role: models.RoleAdmin},
			allowed:    []models.Role{models.RoleAdmin, models.RoleLeadGuide},
			wantStatus: http.StatusOK,
		},
		{
			name:       "role not in set",
			identity:   &Identity{ID: "u1", Role: models.RoleUser},
			allowed:    []models.Role{models.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no identity attached",
			identity:   nil,
			allowed:    []models.Role{models.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.identity != nil {
				ctx := context.WithValue(req.Context(), IdentityContextKey, tt.identity)
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()

			guard.RestrictTo(tt.allowed...)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
