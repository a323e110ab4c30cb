// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// passwordSource reads passwords from a no-echo terminal prompt or, with
// --password-stdin, one per line from stdin.
type passwordSource struct {
	cmd       *cobra.Command
	opts      *rootOptions
	fromStdin bool
	lines     *bufio.Scanner
}

func newPasswordSource(cmd *cobra.Command, opts *rootOptions, fromStdin bool) *passwordSource {
	return &passwordSource{cmd: cmd, opts: opts, fromStdin: fromStdin}
}

// Read returns the next password, prompting with label on a terminal.
func (p *passwordSource) Read(label string) (string, error) {
	if p.fromStdin {
		if p.lines == nil {
			p.lines = bufio.NewScanner(p.cmd.InOrStdin())
		}
		if !p.lines.Scan() {
			if err := p.lines.Err(); err != nil {
				return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
			}
			return "", oops.Code("PASSWORD_READ_FAILED").
				With("field", label).
				Errorf("stdin ended before %s was read", strings.ToLower(label))
		}
		return strings.TrimRight(p.lines.Text(), "\r"), nil
	}

	fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int
	if !p.opts.isTerminal(fd) {
		return "", oops.Code("PASSWORD_READ_FAILED").Errorf("stdin is not a terminal; use --password-stdin")
	}
	_, _ = fmt.Fprintf(p.cmd.ErrOrStderr(), "%s: ", label)
	secret, err := p.opts.readPassword(fd)
	_, _ = fmt.Fprintln(p.cmd.ErrOrStderr())
	if err != nil {
		return "", oops.Code("PASSWORD_READ_FAILED").With("field", label).Wrap(err)
	}
	return string(secret), nil
}

// ReadNew reads a new password. On a terminal it is asked twice and both
// entries must match.
func (p *passwordSource) ReadNew(label string) (string, error) {
	first, err := p.Read(label)
	if err != nil || p.fromStdin {
		return first, err
	}
	second, err := p.Read("Confirm " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", oops.Code("PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	return first, nil
}
