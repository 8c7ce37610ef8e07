// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

package store

import (
	"context"
	"sync"

	"github.com/atlastours/identity/internal/models"
)

// MemoryStore is an in-memory UserStore for tests and development.
// It enforces the same contracts as the Badger implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

// Create persists a new record, enforcing email uniqueness.
func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	s.byID[user.ID] = user.Clone()
	s.byEmail[user.Email] = user.ID
	return nil
}

// FindByID returns the active record with the given id, hidden fields
// stripped.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok || !user.Active {
		return nil, ErrUserNotFound
	}
	out := user.Clone()
	out.StripSecrets()
	return out, nil
}

// FindByEmail returns the active record with the given normalized email.
func (s *MemoryStore) FindByEmail(_ context.Context, email string, includeSecrets bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	user, ok := s.byID[id]
	if !ok || !user.Active {
		return nil, ErrUserNotFound
	}
	out := user.Clone()
	if !includeSecrets {
		out.StripSecrets()
	}
	return out, nil
}

// FindByResetHash returns the active record holding the given reset-token
// hash, including hidden fields.
func (s *MemoryStore) FindByResetHash(_ context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.byID {
		if user.Active && user.ResetTokenHash == hash {
			return user.Clone(), nil
		}
	}
	return nil, ErrUserNotFound
}

// Update persists changes to an existing record.
func (s *MemoryStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if prev.Email != user.Email {
		if _, exists := s.byEmail[user.Email]; exists {
			return ErrEmailTaken
		}
		delete(s.byEmail, prev.Email)
		s.byEmail[user.Email] = user.ID
	}
	s.byID[user.ID] = user.Clone()
	return nil
}
