// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package sqlite implements auth.CredentialStore on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

// DefaultTimeout bounds each store call.
const DefaultTimeout = 5 * time.Second

//go:embed schema.sql
var schema string

const selectIdentity = `
	SELECT id, email, password_hash, token_generation, created_at, updated_at
	FROM identities`

// Store implements auth.CredentialStore using SQLite.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Open opens the database at path, creating it and its schema if needed.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	// One writer at a time; the busy timeout covers other processes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "apply schema").
			With("path", path).
			Wrap(err)
	}

	s := &Store{db: db, timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.Code("STORE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

// FindByEmail retrieves an identity by email (case-insensitive).
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	email = auth.NormalizeEmail(email)

	var identity *auth.Identity
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		identity, err = scanIdentity(s.db.QueryRowContext(ctx, selectIdentity+`
			WHERE lower(email) = ?`, email))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(auth.CodeIdentityNotFound).With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("find identity by email", err)
	}
	return identity, nil
}

// FindByID retrieves an identity by ID.
func (s *Store) FindByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	var identity *auth.Identity
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		identity, err = scanIdentity(s.db.QueryRowContext(ctx, selectIdentity+`
			WHERE id = ?`, id.String()))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code(auth.CodeIdentityNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("find identity by id", err)
	}
	return identity, nil
}

// Create stores a new identity. The unique index on lower(email) rejects a
// second registration of the same address.
func (s *Store) Create(ctx context.Context, email string, hash auth.HashRecord) (*auth.Identity, error) {
	if hash.IsZero() {
		return nil, oops.Code("IDENTITY_CREATE_FAILED").Errorf("password hash is required")
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	identity := &auth.Identity{
		ID:           ulid.Make(),
		Email:        auth.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, email, password_hash, token_generation, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, identity.ID.String(), identity.Email, hash.Encode(), now.UnixMicro(), now.UnixMicro())
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
func (s *Store) BumpGeneration(ctx context.Context, id ulid.ULID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		UPDATE identities
		SET token_generation = token_generation + 1, updated_at = ?
		WHERE id = ?
	`, s.now().UTC().UnixMicro(), id.String())
	if err != nil {
		return classify("bump generation", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify("bump generation", err)
	}
	if rows == 0 {
		return oops.Code(auth.CodeIdentityNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the hash and increments the generation in a single
// statement, returning the new generation.
func (s *Store) UpdatePassword(ctx context.Context, id ulid.ULID, hash auth.HashRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var generation int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE identities
		SET password_hash = ?, token_generation = token_generation + 1, updated_at = ?
		WHERE id = ?
		RETURNING token_generation
	`, hash.Encode(), s.now().UTC().UnixMicro(), id.String()).Scan(&generation)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, oops.Code(auth.CodeIdentityNotFound).With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, classify("update password", err)
	}
	return generation, nil
}

func (s *Store) read(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(20*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		err := fn(callCtx)
		if err != nil && ctx.Err() == nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func scanIdentity(row *sql.Row) (*auth.Identity, error) {
	var (
		idStr, email, hash   string
		generation           int64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&idStr, &email, &hash, &generation, &createdAt, &updatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ID").With("id", idStr).Wrap(err)
	}
	record, err := auth.ParseHashRecord(hash)
	if err != nil {
		return nil, oops.With("operation", "parse password hash").With("id", idStr).Wrap(err)
	}

	return &auth.Identity{
		ID:              id,
		Email:           email,
		PasswordHash:    record,
		TokenGeneration: generation,
		CreatedAt:       time.UnixMicro(createdAt).UTC(),
		UpdatedAt:       time.UnixMicro(updatedAt).UTC(),
	}, nil
}

func classify(operation string, err error) error {
	if isTransient(err) {
		return oops.Code(auth.CodeStoreUnavailable).
			With("operation", operation).
			Wrap(errors.Join(auth.ErrStoreUnavailable, err))
	}
	return oops.Code("IDENTITY_STORE_FAILED").With("operation", operation).Wrap(err)
}

func isDuplicateEmail(err error) bool {
	var sqlErr *sqlitedriver.Error
	return errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// isTransient reports deadlines and lock contention that outlasted the busy
// timeout.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var sqlErr *sqlitedriver.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
		return true
	default:
		return false
	}
}

// Compile-time interface check.
var _ auth.CredentialStore = (*Store)(nil)
