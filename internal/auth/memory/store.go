// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package memory provides an in-process auth.CredentialStore for tests and
// single-process tooling.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

// Store implements auth.CredentialStore with maps guarded by a mutex.
// Uniqueness and generation increments happen under the write lock, which
// gives the same atomicity a unique index and a single UPDATE give in SQL.
type Store struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.Identity
	byEmail map[string]ulid.ULID
	now     func() time.Time

	// failWith, when set, is returned by every call. Used to simulate an
	// unavailable store.
	failWith error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		byID:    make(map[ulid.ULID]*auth.Identity),
		byEmail: make(map[string]ulid.ULID),
		now:     time.Now,
	}
}

// SetUnavailable makes every subsequent call fail with auth.ErrStoreUnavailable
// until called again with false.
func (s *Store) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if down {
		s.failWith = oops.Code(auth.CodeStoreUnavailable).Wrap(auth.ErrStoreUnavailable)
	} else {
		s.failWith = nil
	}
}

// Len returns the number of stored identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// FindByEmail returns the identity for a normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	id, ok := s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, oops.Code(auth.CodeIdentityNotFound).With("email", email).Wrap(auth.ErrNotFound)
	}
	return clone(s.byID[id]), nil
}

// FindByID returns the identity with the given id.
func (s *Store) FindByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	identity, ok := s.byID[id]
	if !ok {
		return nil, oops.Code(auth.CodeIdentityNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return clone(identity), nil
}

// Create stores a new identity.
func (s *Store) Create(ctx context.Context, email string, hash auth.HashRecord) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	email = auth.NormalizeEmail(email)
	if _, exists := s.byEmail[email]; exists {
		return nil, oops.Code(auth.CodeDuplicateEmail).With("email", email).Wrap(auth.ErrDuplicateEmail)
	}

	now := s.now().UTC()
	identity := &auth.Identity{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[identity.ID] = identity
	s.byEmail[email] = identity.ID
	return clone(identity), nil
}

// BumpGeneration increments the identity's token generation.
func (s *Store) BumpGeneration(ctx context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}

	identity, ok := s.byID[id]
	if !ok {
		return oops.Code(auth.CodeIdentityNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	identity.TokenGeneration++
	identity.UpdatedAt = s.now().UTC()
	return nil
}

// UpdatePassword replaces the hash and increments the generation.
func (s *Store) UpdatePassword(ctx context.Context, id ulid.ULID, hash auth.HashRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	identity, ok := s.byID[id]
	if !ok {
		return 0, oops.Code(auth.CodeIdentityNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	identity.PasswordHash = hash
	identity.TokenGeneration++
	identity.UpdatedAt = s.now().UTC()
	return identity.TokenGeneration, nil
}

func (s *Store) check(ctx context.Context) error {
	if s.failWith != nil {
		return s.failWith
	}
	if err := ctx.Err(); err != nil {
		return oops.Code(auth.CodeStoreUnavailable).Wrap(errors.Join(auth.ErrStoreUnavailable, err))
	}
	return nil
}

func clone(identity *auth.Identity) *auth.Identity {
	c := *identity
	c.PasswordHash.Salt = append([]byte(nil), identity.PasswordHash.Salt...)
	c.PasswordHash.Digest = append([]byte(nil), identity.PasswordHash.Digest...)
	return &c
}

// Compile-time interface check.
var _ auth.CredentialStore = (*Store)(nil)
