// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	"github.com/tuanpham24/tbook-auth/pkg/errutil"
)

// terminalOptions simulates an interactive terminal that answers prompts
// from answers in order.
func terminalOptions(answers ...string) *rootOptions {
	return &rootOptions{
		isTerminal: func(int) bool { return true },
		readPassword: func(int) ([]byte, error) {
			if len(answers) == 0 {
				return nil, errors.New("no more input")
			}
			next := answers[0]
			answers = answers[1:]
			return []byte(next), nil
		},
	}
}

func TestPrompt_RegisterConfirms(t *testing.T) {
	env := newCLIEnv(t, "")

	res := env.run(t, terminalOptions("typed password", "typed password"), "", "register", "--email", "frank@example.com")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Password: ")
	assert.Contains(t, res.stderr, "Confirm password: ")
	assert.True(t, decodeResult(t, res.stdout).Success)
}

func TestPrompt_Mismatch(t *testing.T) {
	env := newCLIEnv(t, "")

	res := env.run(t, terminalOptions("typed password", "typo password"), "", "register", "--email", "gina@example.com")
	errutil.AssertErrorCode(t, res.err, "PASSWORD_MISMATCH")
	assert.Empty(t, res.stdout, "nothing is registered")
}

func TestPrompt_LoginAsksOnce(t *testing.T) {
	env := newCLIEnv(t, "")
	require.NoError(t, env.run(t, nil, "typed password\n", "register", "--email", "hana@example.com", "--password-stdin").err)

	res := env.run(t, terminalOptions("typed password"), "", "login", "--email", "hana@example.com")
	require.NoError(t, res.err, res.stderr)
	assert.NotContains(t, res.stderr, "Confirm")
	assert.Equal(t, auth.MessageLoggedIn, decodeResult(t, res.stdout).Message)
}

func TestPrompt_NotATerminal(t *testing.T) {
	env := newCLIEnv(t, "")
	opts := &rootOptions{isTerminal: func(int) bool { return false }}

	res := env.run(t, opts, "", "login", "--email", "ivan@example.com")
	errutil.AssertErrorCode(t, res.err, "PASSWORD_READ_FAILED")
	assert.Contains(t, res.err.Error(), "--password-stdin")
}

func TestPrompt_ReadError(t *testing.T) {
	env := newCLIEnv(t, "")

	res := env.run(t, terminalOptions(), "", "login", "--email", "jo@example.com")
	errutil.AssertErrorCode(t, res.err, "PASSWORD_READ_FAILED")
	errutil.AssertErrorContext(t, res.err, "field", "Password")
}
