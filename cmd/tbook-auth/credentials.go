// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd(opts *rootOptions) *cobra.Command {
	var (
		email     string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an identity and print its first session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := newPasswordSource(cmd, opts, fromStdin).ReadNew("Password")
			if err != nil {
				return err
			}
			return runAuth(cmd, opts, "register", func(ctx context.Context, a *app) (any, bool) {
				token, err := a.service.Register(ctx, email, password)
				return tokenResult(auth.MessageRegistered, token, err)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewLoginCmd creates the login subcommand.
func NewLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		email     string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate by email and password and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := newPasswordSource(cmd, opts, fromStdin).Read("Password")
			if err != nil {
				return err
			}
			return runAuth(cmd, opts, "login", func(ctx context.Context, a *app) (any, bool) {
				token, err := a.service.Login(ctx, email, password)
				return tokenResult(auth.MessageLoggedIn, token, err)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewPasswdCmd creates the passwd subcommand.
func NewPasswdCmd(opts *rootOptions) *cobra.Command {
	var (
		rawID     string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change an identity's password, revoking every earlier token",
		Long: `Change an identity's password. The current password is checked first.
Every token issued before the change stops verifying; a fresh token is printed.
With --password-stdin the current and new passwords are read as two lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseIdentityID(rawID)
			if err != nil {
				return err
			}
			src := newPasswordSource(cmd, opts, fromStdin)
			current, err := src.Read("Current password")
			if err != nil {
				return err
			}
			next, err := src.ReadNew("New password")
			if err != nil {
				return err
			}
			return runAuth(cmd, opts, "passwd", func(ctx context.Context, a *app) (any, bool) {
				token, err := a.service.ChangePassword(ctx, id, current, next)
				return tokenResult(auth.MessagePasswordChanged, token, err)
			})
		},
	}
	cmd.Flags().StringVar(&rawID, "id", "", "identity id")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the passwords from stdin")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// NewRevokeCmd creates the revoke subcommand.
func NewRevokeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke ID",
		Short: "Revoke every session token of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdentityID(args[0])
			if err != nil {
				return err
			}
			return runAuth(cmd, opts, "revoke", func(ctx context.Context, a *app) (any, bool) {
				return tokenResult(auth.MessageRevoked, auth.SessionToken{}, a.service.RevokeAll(ctx, id))
			})
		},
	}
}

// identityView is the printable part of an identity.
type identityView struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Generation int64  `json:"generation"`
}

// verifyResult extends Result with the verified identity or the rejection.
type verifyResult struct {
	auth.Result
	Reason   string        `json:"reason,omitempty"`
	Identity *identityView `json:"identity,omitempty"`
}

// NewVerifyCmd creates the verify subcommand.
func NewVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a session token and print its identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, opts, "verify", func(ctx context.Context, a *app) (any, bool) {
				identity, err := a.service.Verify(ctx, args[0])
				if err != nil {
					result, _ := auth.Failed(err)
					return verifyResult{Result: result, Reason: string(auth.KindOf(err))}, false
				}
				return verifyResult{
					Result: auth.Result{Success: true, Message: auth.MessageTokenValid},
					Identity: &identityView{
						ID:         identity.ID.String(),
						Email:      identity.Email,
						Generation: identity.TokenGeneration,
					},
				}, true
			})
		},
	}
}

func tokenResult(message string, token auth.SessionToken, err error) (any, bool) {
	if err != nil {
		result, _ := auth.Failed(err)
		return result, false
	}
	result, _ := auth.Succeeded(message, token)
	return result, true
}

func parseIdentityID(raw string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("INVALID_IDENTITY_ID").With("id", raw).Wrapf(err, "invalid identity id %q", raw)
	}
	return id, nil
}
