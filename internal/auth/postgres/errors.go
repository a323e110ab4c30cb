// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

const primaryKeyConstraint = "identities_pkey"

// classify wraps a driver error. Transient failures become
// auth.ErrStoreUnavailable; anything else keeps only its oops code so it
// surfaces as an internal error.
func classify(operation string, err error) error {
	if isTransient(err) {
		return oops.Code(auth.CodeStoreUnavailable).
			With("operation", operation).
			Wrap(errors.Join(auth.ErrStoreUnavailable, err))
	}
	return oops.Code("IDENTITY_STORE_FAILED").
		With("operation", operation).
		Wrap(err)
}

func isDuplicateEmail(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName != primaryKeyConstraint
}

// isTransient reports errors worth retrying or reporting as unavailability:
// deadlines, connection failures and server-side resource exhaustion.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
