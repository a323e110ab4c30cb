// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// keygenBytes is the size of a generated signing secret.
const keygenBytes = 48

// NewKeygenCmd creates the keygen subcommand.
func NewKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random signing secret for token.secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := generateSecret(rand.Reader)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
}

func generateSecret(r io.Reader) (string, error) {
	buf := make([]byte, keygenBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", oops.Code("KEYGEN_FAILED").Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
