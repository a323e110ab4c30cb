// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tuanpham24/tbook-auth/internal/config"
	"github.com/tuanpham24/tbook-auth/internal/store"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the credential store schema",
		Long: `Manage the postgres schema with the embedded migrations.
A sqlite store applies its schema when opened; "migrate up" just opens it.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if isSQLite(cfg) {
				_, closeStore, err := opts.openStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				closeStore()
				fmt.Fprintln(cmd.OutOrStdout(), "sqlite schema is up to date")
				return nil
			}
			return withMigrator(cmd, cfg, func(m *store.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postgresOnly(cmd, opts, func(m *store.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back all migrations")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postgresOnly(cmd, opts, func(m *store.Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(status)
				if err != nil {
					return oops.Code("OUTPUT_FAILED").Wrap(err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postgresOnly(cmd, opts, func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark a version as applied without running it, clearing the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return postgresOnly(cmd, opts, func(m *store.Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forced version %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

func isSQLite(cfg *config.Config) bool {
	backend, err := store.BackendOf(cfg.Store.DSN)
	return err == nil && backend == store.BackendSQLite
}

func postgresOnly(cmd *cobra.Command, opts *rootOptions, fn func(*store.Migrator) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if isSQLite(cfg) {
		return oops.Code("MIGRATION_UNSUPPORTED").
			With("command", cmd.Name()).
			Errorf("migrate %s needs a postgres store", cmd.Name())
	}
	return withMigrator(cmd, cfg, fn)
}

func withMigrator(cmd *cobra.Command, cfg *config.Config, fn func(*store.Migrator) error) error {
	m, err := store.NewMigrator(cfg.Store.DSN, store.WithMigrationLogger(newLogger(cmd, cfg)))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}

// parseForceVersion parses the VERSION argument of migrate force.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("version", s).Wrap(err)
	}
	return v, nil
}
