// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	"github.com/tuanpham24/tbook-auth/internal/config"
)

// errCommandFailed is returned after a command has printed an unsuccessful
// Result; main exits non-zero without printing it again.
var errCommandFailed = errors.New("command failed")

// rootOptions carries the global flag values and the injectable
// dependencies shared by every subcommand.
type rootOptions struct {
	configFile string

	// openStore opens the credential store selected by the config.
	// Default: openStore.
	openStore func(ctx context.Context, cfg *config.Config) (auth.CredentialStore, func(), error)

	// isTerminal and readPassword back the interactive password prompt.
	// Default: term.IsTerminal and term.ReadPassword.
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

func (o *rootOptions) withDefaults() *rootOptions {
	if o.openStore == nil {
		o.openStore = openStore
	}
	if o.isTerminal == nil {
		o.isTerminal = term.IsTerminal
	}
	if o.readPassword == nil {
		o.readPassword = term.ReadPassword
	}
	return o
}

// NewRootCmd creates the root command for the tbook-auth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	opts.withDefaults()

	cmd := &cobra.Command{
		Use:   "tbook-auth",
		Short: "tbook-auth - credential and session token engine",
		Long: `tbook-auth registers identities, authenticates them by email and
password, and issues signed session tokens that can be revoked in bulk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/tbook-auth/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewRegisterCmd(opts))
	cmd.AddCommand(NewLoginCmd(opts))
	cmd.AddCommand(NewVerifyCmd(opts))
	cmd.AddCommand(NewRevokeCmd(opts))
	cmd.AddCommand(NewPasswdCmd(opts))
	cmd.AddCommand(NewKeygenCmd())
	cmd.AddCommand(NewCalibrateCmd(opts))
	cmd.AddCommand(NewConfigCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
