// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atlastours/identity/internal/models"
)

// newStores returns every UserStore implementation under test. Both
// must satisfy identical contracts.
func newStores(t *testing.T) map[string]UserStore {
	t.Helper()

	db, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})

	return map[string]UserStore{
		"memory": NewMemoryStore(),
		"badger": NewBadgerStore(db),
	}
}

func testUser(id, email string) *models.User {
	return &models.User{
		ID:           id,
		Name:         "Jo",
		Email:        email,
		Role:         models.RoleUser,
		PasswordHash: "digest-" + id,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCreateAndFindByID(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Create(ctx, testUser("u1", "jo@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			got, err := s.FindByID(ctx, "u1")
			if err != nil {
				t.Fatalf("FindByID() error = %v", err)
			}
			if got.Email != "jo@example.com" || got.Role != models.RoleUser {
				t.Errorf("FindByID() = %+v", got)
			}
			if got.PasswordHash != "" {
				t.Error("FindByID() returned the password hash")
			}

			if _, err := s.FindByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByID(missing) error = %v, want ErrUserNotFound", err)
			}
		})
	}
}

func TestCreateEnforcesEmailUniqueness(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Create(ctx, testUser("u1", "jo@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if err := s.Create(ctx, testUser("u2", "jo@example.com")); !errors.Is(err, ErrEmailTaken) {
				t.Errorf("Create() duplicate error = %v, want ErrEmailTaken", err)
			}
		})
	}
}

func TestFindByEmailProjection(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Create(ctx, testUser("u1", "jo@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			got, err := s.FindByEmail(ctx, "jo@example.com", false)
			if err != nil {
				t.Fatalf("FindByEmail() error = %v", err)
			}
			if got.PasswordHash != "" {
				t.Error("default projection returned the password hash")
			}

			got, err = s.FindByEmail(ctx, "jo@example.com", true)
			if err != nil {
				t.Fatalf("FindByEmail() error = %v", err)
			}
			if got.PasswordHash != "digest-u1" {
				t.Errorf("includeSecrets projection hash = %q", got.PasswordHash)
			}

			// Lookup normalizes.
			if _, err := s.FindByEmail(ctx, "Jo@Example.COM ", false); err != nil {
				t.Errorf("FindByEmail() with unnormalized input error = %v", err)
			}

			if _, err := s.FindByEmail(ctx, "nobody@example.com", false); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByEmail(unknown) error = %v, want ErrUserNotFound", err)
			}
		})
	}
}

func TestInactiveRecordsAreInvisible(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := testUser("u1", "jo@example.com")
			u.Active = false
			u.ResetTokenHash = "resethash"
			expiry := time.Now().Add(10 * time.Minute)
			u.ResetTokenExpiry = &expiry
			if err := s.Create(ctx, u); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			if _, err := s.FindByID(ctx, "u1"); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByID() error = %v, want ErrUserNotFound for inactive", err)
			}
			if _, err := s.FindByEmail(ctx, "jo@example.com", true); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByEmail() error = %v, want ErrUserNotFound for inactive", err)
			}
			if _, err := s.FindByResetHash(ctx, "resethash"); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByResetHash() error = %v, want ErrUserNotFound for inactive", err)
			}
		})
	}
}

func TestFindByResetHash(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Create(ctx, testUser("u1", "jo@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			// Attach a reset token through Update, the way the reset
			// flow does.
			u, err := s.FindByEmail(ctx, "jo@example.com", true)
			if err != nil {
				t.Fatalf("FindByEmail() error = %v", err)
			}
			u.ApplyResetToken("resethash", time.Now().Add(10*time.Minute))
			if err := s.Update(ctx, u); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			got, err := s.FindByResetHash(ctx, "resethash")
			if err != nil {
				t.Fatalf("FindByResetHash() error = %v", err)
			}
			if got.ID != "u1" {
				t.Errorf("FindByResetHash() id = %q", got.ID)
			}
			if got.PasswordHash == "" {
				t.Error("FindByResetHash() must include hidden fields")
			}

			if _, err := s.FindByResetHash(ctx, ""); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByResetHash(empty) error = %v, want ErrUserNotFound", err)
			}
			if _, err := s.FindByResetHash(ctx, "otherhash"); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByResetHash(unknown) error = %v, want ErrUserNotFound", err)
			}

			// Clearing the token through Update removes the lookup.
			u.ClearResetToken()
			if err := s.Update(ctx, u); err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if _, err := s.FindByResetHash(ctx, "resethash"); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("FindByResetHash() after clear error = %v, want ErrUserNotFound", err)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Create(ctx, testUser("u1", "jo@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			u, err := s.FindByEmail(ctx, "jo@example.com", true)
			if err != nil {
				t.Fatalf("FindByEmail() error = %v", err)
			}
			u.PasswordHash = "new-digest"
			u.Role = models.RoleGuide
			if err := s.Update(ctx, u); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			got, err := s.FindByEmail(ctx, "jo@example.com", true)
			if err != nil {
				t.Fatalf("FindByEmail() error = %v", err)
			}
			if got.PasswordHash != "new-digest" || got.Role != models.RoleGuide {
				t.Errorf("Update() not persisted: %+v", got)
			}

			if err := s.Update(ctx, testUser("missing", "other@example.com")); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("Update(missing) error = %v, want ErrUserNotFound", err)
			}
		})
	}
}

func TestUpdateEmailMaintainsIndex(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Create(ctx, testUser("u1", "jo@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if err := s.Create(ctx, testUser("u2", "sam@example.com")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			u, err := s.FindByEmail(ctx, "jo@example.com", true)
			if err != nil {
				t.Fatalf("FindByEmail() error = %v", err)
			}

			// Taking another account's email fails.
			u.Email = "sam@example.com"
			if err := s.Update(ctx, u); !errors.Is(err, ErrEmailTaken) {
				t.Errorf("Update() to taken email error = %v, want ErrEmailTaken", err)
			}

			// Moving to a free email rewires the index.
			u.Email = "jo.new@example.com"
			if err := s.Update(ctx, u); err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if _, err := s.FindByEmail(ctx, "jo@example.com", false); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("old email still resolves: %v", err)
			}
			got, err := s.FindByEmail(ctx, "jo.new@example.com", false)
			if err != nil {
				t.Fatalf("FindByEmail(new) error = %v", err)
			}
			if got.ID != "u1" {
				t.Errorf("new email resolves to %q", got.ID)
			}
		})
	}
}
