// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

// cliEnv is an isolated config directory with a sqlite store and cheap
// hashing parameters.
type cliEnv struct {
	dir        string
	configPath string
}

func newCLIEnv(t *testing.T, extra string) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	configPath := filepath.Join(dir, "config.yaml")
	content := `
token:
  secret: ` + testSecret + `
  key_id: "1"
hash:
  algorithm: argon2id
  time: 1
  memory_kib: 64
  threads: 1
store:
  dsn: sqlite://` + filepath.Join(dir, "data", "auth.db") + `
log:
  level: error
` + extra
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return &cliEnv{dir: dir, configPath: configPath}
}

type cliRun struct {
	stdout string
	stderr string
	err    error
}

func (e *cliEnv) run(t *testing.T, opts *rootOptions, stdin string, args ...string) cliRun {
	t.Helper()
	if opts == nil {
		opts = &rootOptions{}
	}
	cmd := newRootCmd(opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.Execute()
	return cliRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func decodeResult(t *testing.T, out string) verifyResult {
	t.Helper()
	var r verifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &r), "output: %s", out)
	return r
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"migrate", "register", "login", "verify", "revoke", "passwd", "keygen", "calibrate", "config", "version"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
	for _, flag := range []string{"--config", "--store-dsn", "--token-ttl", "--hash-algorithm", "--log-format", "--log-level"} {
		assert.Contains(t, output, flag, "Help missing %q flag", flag)
	}
}

func TestCLI_SessionLifecycle(t *testing.T) {
	env := newCLIEnv(t, "")

	reg := env.run(t, nil, "correct horse battery\n", "register", "--email", "Alice@Example.com", "--password-stdin")
	require.NoError(t, reg.err, reg.stderr)
	registered := decodeResult(t, reg.stdout)
	assert.True(t, registered.Success)
	assert.Equal(t, auth.MessageRegistered, registered.Message)
	require.NotEmpty(t, registered.Token)

	login := env.run(t, nil, "correct horse battery\n", "login", "--email", "alice@example.com", "--password-stdin")
	require.NoError(t, login.err, login.stderr)
	loggedIn := decodeResult(t, login.stdout)
	assert.Equal(t, auth.MessageLoggedIn, loggedIn.Message)

	verify := env.run(t, nil, "", "verify", loggedIn.Token)
	require.NoError(t, verify.err, verify.stderr)
	verified := decodeResult(t, verify.stdout)
	require.NotNil(t, verified.Identity)
	assert.Equal(t, "alice@example.com", verified.Identity.Email)
	assert.Zero(t, verified.Identity.Generation)
	id := verified.Identity.ID

	revoke := env.run(t, nil, "", "revoke", id)
	require.NoError(t, revoke.err, revoke.stderr)
	assert.Equal(t, auth.MessageRevoked, decodeResult(t, revoke.stdout).Message)

	for _, token := range []string{registered.Token, loggedIn.Token} {
		rejected := env.run(t, nil, "", "verify", token)
		require.ErrorIs(t, rejected.err, errCommandFailed)
		result := decodeResult(t, rejected.stdout)
		assert.False(t, result.Success)
		assert.Equal(t, string(auth.KindRevoked), result.Reason)
		assert.Equal(t, auth.MessageInvalidSession, result.Message)
	}

	passwd := env.run(t, nil, "correct horse battery\nnew password please\n", "passwd", "--id", id, "--password-stdin")
	require.NoError(t, passwd.err, passwd.stderr)
	changed := decodeResult(t, passwd.stdout)
	assert.Equal(t, auth.MessagePasswordChanged, changed.Message)

	verify = env.run(t, nil, "", "verify", changed.Token)
	require.NoError(t, verify.err)
	assert.Equal(t, int64(2), decodeResult(t, verify.stdout).Identity.Generation)

	oldPassword := env.run(t, nil, "correct horse battery\n", "login", "--email", "alice@example.com", "--password-stdin")
	require.ErrorIs(t, oldPassword.err, errCommandFailed)
	assert.Equal(t, auth.MessageInvalidCredentials, decodeResult(t, oldPassword.stdout).Message)
}

func TestCLI_RegisterFailures(t *testing.T) {
	env := newCLIEnv(t, "")

	first := env.run(t, nil, "long enough password\n", "register", "--email", "bob@example.com", "--password-stdin")
	require.NoError(t, first.err)

	dup := env.run(t, nil, "another password\n", "register", "--email", "BOB@example.com", "--password-stdin")
	require.ErrorIs(t, dup.err, errCommandFailed)
	assert.Equal(t, auth.MessageDuplicateEmail, decodeResult(t, dup.stdout).Message)

	short := env.run(t, nil, "short\n", "register", "--email", "carol@example.com", "--password-stdin")
	require.ErrorIs(t, short.err, errCommandFailed)
	result := decodeResult(t, short.stdout)
	assert.Contains(t, result.Message, "at least 8")
	assert.Empty(t, result.Token)

	empty := env.run(t, nil, "", "register", "--email", "dave@example.com", "--password-stdin")
	require.Error(t, empty.err)
	assert.Contains(t, empty.err.Error(), "stdin ended")
}

func TestCLI_InvalidArguments(t *testing.T) {
	env := newCLIEnv(t, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"register without email", []string{"register", "--password-stdin"}, `required flag(s) "email"`},
		{"revoke bad id", []string{"revoke", "not-an-id"}, "not-an-id"},
		{"passwd bad id", []string{"passwd", "--id", "42", "--password-stdin"}, "42"},
		{"verify without token", []string{"verify"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(t, nil, "", tt.args...)
			require.Error(t, res.err)
			assert.NotErrorIs(t, res.err, errCommandFailed)
			assert.Contains(t, res.err.Error(), tt.want)
		})
	}
}

func TestCLI_RevokeUnknownIdentity(t *testing.T) {
	env := newCLIEnv(t, "")

	res := env.run(t, nil, "", "revoke", "01HZ0000000000000000000000")
	require.ErrorIs(t, res.err, errCommandFailed)
	assert.Equal(t, auth.MessageNotFound, decodeResult(t, res.stdout).Message)
}

func TestCLI_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t, "")
	require.NoError(t, os.WriteFile(env.configPath, []byte("store:\n  dsn: sqlite:///tmp/x.db\n"), 0o600))

	res := env.run(t, nil, "password1234\n", "login", "--email", "a@example.com", "--password-stdin")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "signing secret")
}

func TestCLI_FlagOverridesConfig(t *testing.T) {
	env := newCLIEnv(t, "")
	otherDB := filepath.Join(env.dir, "other", "auth.db")

	res := env.run(t, nil, "long enough password\n",
		"--store-dsn", "sqlite://"+otherDB,
		"register", "--email", "erin@example.com", "--password-stdin")
	require.NoError(t, res.err, res.stderr)

	_, err := os.Stat(otherDB)
	require.NoError(t, err, "register used the --store-dsn database")
}
