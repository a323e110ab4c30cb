// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Identity is a persisted credential record keyed by a unique email.
// Identities are never physically deleted by this package.
type Identity struct {
	ID              ulid.ULID
	Email           string
	PasswordHash    HashRecord
	TokenGeneration int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LogValue keeps the email and password hash out of logs.
func (i *Identity) LogValue() slog.Value {
	if i == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.String("id", i.ID.String()),
		slog.Int64("generation", i.TokenGeneration),
	)
}

// CredentialStore persists identities.
//
// Implementations must enforce email uniqueness atomically in Create and
// increment generations atomically in BumpGeneration and UpdatePassword.
// Every call is bounded by a timeout; deadline and connection failures are
// reported as ErrStoreUnavailable.
type CredentialStore interface {
	// FindByEmail returns the identity for a normalized email or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	// FindByID returns the identity with the given id or ErrNotFound.
	FindByID(ctx context.Context, id ulid.ULID) (*Identity, error)

	// Create stores a new identity with generation 0.
	// Returns ErrDuplicateEmail if the email is already present.
	Create(ctx context.Context, email string, hash HashRecord) (*Identity, error)

	// BumpGeneration increments the token generation, revoking every token
	// issued before the call. Returns ErrNotFound for an unknown id.
	BumpGeneration(ctx context.Context, id ulid.ULID) error

	// UpdatePassword replaces the password hash and increments the token
	// generation in one step, returning the new generation.
	UpdatePassword(ctx context.Context, id ulid.ULID, hash HashRecord) (int64, error)
}
