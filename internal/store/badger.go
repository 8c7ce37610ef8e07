// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/atlastours/identity/internal/models"
)

// Key prefixes for BadgerDB storage. The email and reset keys are
// secondary indexes pointing at the record id.
const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user_email:"
	resetKeyPrefix = "user_reset:"
)

// record is the storage representation of a credential record. It exists
// because models.User hides the credential fields from JSON; storage
// needs them.
type record struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              string     `json:"role"`
	PasswordHash      string     `json:"password_hash"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	ResetTokenHash    string     `json:"reset_token_hash,omitempty"`
	ResetTokenExpiry  *time.Time `json:"reset_token_expiry,omitempty"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toRecord(u *models.User) *record {
	return &record{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              string(u.Role),
		PasswordHash:      u.PasswordHash,
		PasswordChangedAt: u.PasswordChangedAt,
		ResetTokenHash:    u.ResetTokenHash,
		ResetTokenExpiry:  u.ResetTokenExpiry,
		Active:            u.Active,
		CreatedAt:         u.CreatedAt,
	}
}

func (r *record) toUser() *models.User {
	return &models.User{
		ID:                r.ID,
		Name:              r.Name,
		Email:             r.Email,
		Role:              models.Role(r.Role),
		PasswordHash:      r.PasswordHash,
		PasswordChangedAt: r.PasswordChangedAt,
		ResetTokenHash:    r.ResetTokenHash,
		ResetTokenExpiry:  r.ResetTokenExpiry,
		Active:            r.Active,
		CreatedAt:         r.CreatedAt,
	}
}

// BadgerStore implements UserStore on BadgerDB for durable embedded
// storage across restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed user store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens (or creates) a BadgerDB at the given path. An empty
// path opens an in-memory database, used by tests and development mode.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// Create persists a new record, claiming the email index key in the same
// transaction so uniqueness holds under concurrent signups.
func (s *BadgerStore) Create(_ context.Context, user *models.User) error {
	rec := toRecord(user)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(emailKeyPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email index: %w", err)
		}

		if err := txn.Set([]byte(userKeyPrefix+user.ID), data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
		if user.ResetTokenHash != "" {
			if err := txn.Set([]byte(resetKeyPrefix+user.ResetTokenHash), []byte(user.ID)); err != nil {
				return fmt.Errorf("set reset index: %w", err)
			}
		}
		return nil
	})
}

// FindByID returns the active record with the given id, hidden fields
// stripped.
func (s *BadgerStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	user.StripSecrets()
	return user, nil
}

// FindByEmail returns the active record with the given normalized email.
func (s *BadgerStore) FindByEmail(_ context.Context, email string, includeSecrets bool) (*models.User, error) {
	email = models.NormalizeEmail(email)

	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKeyPrefix + email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get email index: %w", err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	user, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if !includeSecrets {
		user.StripSecrets()
	}
	return user, nil
}

// FindByResetHash returns the active record holding the given reset-token
// hash, including hidden fields.
func (s *BadgerStore) FindByResetHash(_ context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrUserNotFound
	}

	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resetKeyPrefix + hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get reset index: %w", err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.getByID(id)
}

// Update persists changes to an existing record and maintains the email
// and reset-hash index keys.
func (s *BadgerStore) Update(_ context.Context, user *models.User) error {
	rec := toRecord(user)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		userKey := []byte(userKeyPrefix + user.ID)
		item, err := txn.Get(userKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		var prev record
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prev)
		}); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}

		if prev.Email != user.Email {
			newEmailKey := []byte(emailKeyPrefix + user.Email)
			if _, err := txn.Get(newEmailKey); err == nil {
				return ErrEmailTaken
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check email index: %w", err)
			}
			if err := txn.Delete([]byte(emailKeyPrefix + prev.Email)); err != nil {
				return fmt.Errorf("delete email index: %w", err)
			}
			if err := txn.Set(newEmailKey, []byte(user.ID)); err != nil {
				return fmt.Errorf("set email index: %w", err)
			}
		}

		if prev.ResetTokenHash != user.ResetTokenHash {
			if prev.ResetTokenHash != "" {
				if err := txn.Delete([]byte(resetKeyPrefix + prev.ResetTokenHash)); err != nil {
					return fmt.Errorf("delete reset index: %w", err)
				}
			}
			if user.ResetTokenHash != "" {
				if err := txn.Set([]byte(resetKeyPrefix+user.ResetTokenHash), []byte(user.ID)); err != nil {
					return fmt.Errorf("set reset index: %w", err)
				}
			}
		}

		if err := txn.Set(userKey, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		return nil
	})
}

// getByID loads a record by id, filtering inactive accounts.
func (s *BadgerStore) getByID(id string) (*models.User, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	if !rec.Active {
		return nil, ErrUserNotFound
	}
	return rec.toUser(), nil
}
