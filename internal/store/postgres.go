// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package store holds database connection helpers and the embedded
// postgres schema migrations for the credential store.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// Backend names a credential store implementation.
type Backend string

// Supported backends.
const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// BackendOf returns the backend selected by dsn's scheme.
func BackendOf(dsn string) (Backend, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return BackendSQLite, nil
	case dsn == "":
		return "", oops.Code("STORE_DSN_INVALID").Errorf("store dsn is required")
	default:
		scheme, _, _ := strings.Cut(dsn, "://")
		return "", oops.Code("STORE_DSN_INVALID").
			With("scheme", scheme).
			Errorf("unsupported store dsn scheme")
	}
}

// SQLitePath strips the sqlite:// prefix from dsn.
func SQLitePath(dsn string) string {
	return strings.TrimPrefix(dsn, "sqlite://")
}

// PoolOptions tunes the postgres connection pool.
type PoolOptions struct {
	// MaxConns caps open connections. Zero keeps the pgxpool default.
	MaxConns int32

	// ConnectTimeout bounds the initial dial and ping. Zero means 5s.
	ConnectTimeout time.Duration
}

// Connect opens a pgx pool for dsn and pings it.
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("STORE_DSN_INVALID").With("operation", "parse dsn").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cfg.ConnConfig.ConnectTimeout = timeout

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping").
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}
	return pool, nil
}
