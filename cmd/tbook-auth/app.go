// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	authpg "github.com/tuanpham24/tbook-auth/internal/auth/postgres"
	"github.com/tuanpham24/tbook-auth/internal/auth/sqlite"
	"github.com/tuanpham24/tbook-auth/internal/config"
	"github.com/tuanpham24/tbook-auth/internal/logging"
	"github.com/tuanpham24/tbook-auth/internal/observability"
	"github.com/tuanpham24/tbook-auth/internal/store"
	"github.com/tuanpham24/tbook-auth/internal/xdg"
	"github.com/tuanpham24/tbook-auth/pkg/errutil"
)

const serviceName = "tbook-auth"

// pushTimeout bounds the Pushgateway push after a command.
const pushTimeout = 5 * time.Second

// app is the wired auth stack for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *auth.Service
	registry *prometheus.Registry
	closeFn  func()
}

// loadConfig loads and validates the effective configuration.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{File: opts.configFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
}

// newApp wires config, logging, metrics, the store and the auth service.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, cfg)
	registry, metrics := observability.NewRegistry()

	keys, err := cfg.KeySet()
	if err != nil {
		return nil, err
	}
	tokenCfg := auth.TokenConfig{Keys: keys, TTL: time.Duration(cfg.Token.TTL)}
	issuer, err := auth.NewTokenIssuer(tokenCfg)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewHasher(cfg.HashPolicy())
	if err != nil {
		return nil, err
	}
	policy, err := cfg.AuthPolicy()
	if err != nil {
		return nil, err
	}

	credentials, closeStore, err := opts.openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewTokenVerifier(tokenCfg, credentials)
	if err != nil {
		closeStore()
		return nil, err
	}

	service, err := auth.NewAuthService(credentials,
		auth.NewHashPool(hasher, cfg.Hash.Workers, metrics),
		issuer, verifier,
		auth.WithLogger(logger),
		auth.WithPolicy(policy),
		auth.WithLoginLimiter(cfg.LoginLimiter()),
		auth.WithObserver(metrics),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		registry: registry,
		closeFn:  closeStore,
	}, nil
}

// Close releases the store.
func (a *app) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// push sends the metrics registry to the Pushgateway when one is configured.
// Failures are logged; they never change the command outcome.
func (a *app) push(ctx context.Context, command string) {
	url := a.cfg.Metrics.PushgatewayURL
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := observability.Push(ctx, url, command, a.registry); err != nil {
		errutil.LogError(ctx, a.logger, "metrics push failed", err)
	}
}

// openStore opens the postgres or sqlite credential store named by the DSN.
func openStore(ctx context.Context, cfg *config.Config) (auth.CredentialStore, func(), error) {
	backend, err := store.BackendOf(cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	timeout := time.Duration(cfg.Store.Timeout)

	switch backend {
	case store.BackendSQLite:
		path := store.SQLitePath(cfg.Store.DSN)
		if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, nil, err
		}
		s, err := sqlite.Open(ctx, path, sqlite.WithTimeout(timeout))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		pool, err := store.Connect(ctx, cfg.Store.DSN, store.PoolOptions{
			MaxConns:       cfg.Store.MaxConns,
			ConnectTimeout: timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return authpg.NewIdentityRepository(pool, authpg.WithTimeout(timeout)), pool.Close, nil
	}
}

// writeJSON prints v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return oops.Code("OUTPUT_FAILED").Wrap(err)
	}
	return nil
}

// runAuth wires the app, runs fn and prints its Result. A Result with
// success=false yields errCommandFailed.
func runAuth(cmd *cobra.Command, opts *rootOptions, name string, fn func(ctx context.Context, a *app) (any, bool)) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out, ok := fn(ctx, a)
	a.push(ctx, name)

	if err := writeJSON(cmd, out); err != nil {
		return err
	}
	if !ok {
		return errCommandFailed
	}
	return nil
}
