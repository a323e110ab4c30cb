// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package postgres implements auth.CredentialStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

// DefaultTimeout bounds each store call.
const DefaultTimeout = 5 * time.Second

const selectIdentity = `
	SELECT id, email, password_hash, token_generation, created_at, updated_at
	FROM identities`

// pool is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IdentityRepository implements auth.CredentialStore using PostgreSQL.
type IdentityRepository struct {
	pool    pool
	timeout time.Duration
	backoff func() retry.Backoff
	now     func() time.Time
}

// Option configures an IdentityRepository.
type Option func(*IdentityRepository)

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *IdentityRepository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetryBackoff sets the backoff used to retry reads. The func is called
// once per read since backoffs are stateful.
func WithRetryBackoff(b func() retry.Backoff) Option {
	return func(r *IdentityRepository) {
		if b != nil {
			r.backoff = b
		}
	}
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(pool pool, opts ...Option) *IdentityRepository {
	r := &IdentityRepository{
		pool:    pool,
		timeout: DefaultTimeout,
		backoff: defaultBackoff,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))
}

// FindByEmail retrieves an identity by email (case-insensitive).
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	email = auth.NormalizeEmail(email)

	var identity *auth.Identity
	err := r.read(ctx, func(ctx context.Context) error {
		var err error
		identity, err = scanIdentity(r.pool.QueryRow(ctx, selectIdentity+`
			WHERE lower(email) = $1`, email))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.CodeIdentityNotFound).
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("find identity by email", err)
	}
	return identity, nil
}

// FindByID retrieves an identity by ID.
func (r *IdentityRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	var identity *auth.Identity
	err := r.read(ctx, func(ctx context.Context) error {
		var err error
		identity, err = scanIdentity(r.pool.QueryRow(ctx, selectIdentity+`
			WHERE id = $1`, id.String()))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.CodeIdentityNotFound).
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("find identity by id", err)
	}
	return identity, nil
}

// Create stores a new identity. The unique index on lower(email) makes
// concurrent registrations of one email produce exactly one row.
func (r *IdentityRepository) Create(ctx context.Context, email string, hash auth.HashRecord) (*auth.Identity, error) {
	if hash.IsZero() {
		return nil, oops.Code("IDENTITY_CREATE_FAILED").Errorf("password hash is required")
	}

	now := r.now().UTC().Truncate(time.Microsecond)
	identity := &auth.Identity{
		ID:           ulid.Make(),
		Email:        auth.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO identities (id, email, password_hash, token_generation, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
	`,
		identity.ID.String(),
		identity.Email,
		hash.Encode(),
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if isDuplicateEmail(err) {
		return nil, oops.Code(auth.CodeDuplicateEmail).
			With("email", identity.Email).
			Wrap(errors.Join(auth.ErrDuplicateEmail, err))
	}
	if err != nil {
		return nil, classify("insert identity", err)
	}
	return identity, nil
}

// BumpGeneration increments the token generation in a single statement.
func (r *IdentityRepository) BumpGeneration(ctx context.Context, id ulid.ULID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET token_generation = token_generation + 1, updated_at = $2
		WHERE id = $1
	`, id.String(), r.now().UTC())
	if err != nil {
		return classify("bump generation", err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code(auth.CodeIdentityNotFound).
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the hash and increments the generation in a single
// statement, returning the new generation.
func (r *IdentityRepository) UpdatePassword(ctx context.Context, id ulid.ULID, hash auth.HashRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var generation int64
	err := r.pool.QueryRow(ctx, `
		UPDATE identities
		SET password_hash = $2, token_generation = token_generation + 1, updated_at = $3
		WHERE id = $1
		RETURNING token_generation
	`, id.String(), hash.Encode(), r.now().UTC()).Scan(&generation)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code(auth.CodeIdentityNotFound).
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, classify("update password", err)
	}
	return generation, nil
}

// read runs fn under the per-call timeout, retrying transient failures.
func (r *IdentityRepository) read(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := fn(callCtx)
		if err != nil && ctx.Err() == nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// scanIdentity scans a single row into an Identity.
// Callers are responsible for handling pgx.ErrNoRows.
func scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var (
		idStr      string
		email      string
		hash       string
		generation int64
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&idStr, &email, &hash, &generation, &createdAt, &updatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ID").
			With("operation", "parse identity id").
			With("id", idStr).
			Wrap(err)
	}
	record, err := auth.ParseHashRecord(hash)
	if err != nil {
		return nil, oops.With("operation", "parse password hash").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Identity{
		ID:              id,
		Email:           email,
		PasswordHash:    record,
		TokenGeneration: generation,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.CredentialStore = (*IdentityRepository)(nil)
