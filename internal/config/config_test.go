// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	"github.com/tuanpham24/tbook-auth/internal/config"
	"github.com/tuanpham24/tbook-auth/pkg/errutil"
)

var secret = strings.Repeat("s", auth.MinSecretLength)

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Token.Secret = secret
	cfg.Store.DSN = "postgres://tbook:hunter2@db:5432/auth"
	return cfg
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, auth.AlgorithmArgon2id, cfg.Hash.Algorithm)
	assert.Equal(t, auth.DefaultTokenTTL, time.Duration(cfg.Token.TTL))
	assert.Equal(t, 5*time.Second, time.Duration(cfg.Store.Timeout))
	assert.Equal(t, auth.DefaultLoginBurst, cfg.RateLimit.LoginBurst)
	assert.Equal(t, "json", cfg.Log.Format)

	err := cfg.Validate()
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "signing secret must be at least 32 bytes")
	assert.Contains(t, err.Error(), "store dsn is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"sqlite dsn", func(c *config.Config) { c.Store.DSN = "sqlite:///tmp/auth.db" }, ""},
		{"short secret", func(c *config.Config) { c.Token.Secret = "short" }, "signing secret"},
		{"short previous key", func(c *config.Config) { c.Token.PreviousKeys = map[string]string{"0": "short"} }, "signing secret"},
		{"ttl below a second", func(c *config.Config) { c.Token.TTL = config.Duration(time.Millisecond) }, "token.ttl"},
		{"unknown algorithm", func(c *config.Config) { c.Hash.Algorithm = "md5" }, "unsupported hash algorithm"},
		{"bcrypt cost too high", func(c *config.Config) {
			c.Hash.Algorithm = auth.AlgorithmBcrypt
			c.Hash.BcryptCost = 40
		}, "bcrypt cost"},
		{"argon2 zero threads", func(c *config.Config) { c.Hash.Threads = 0 }, "threads"},
		{"negative workers", func(c *config.Config) { c.Hash.Workers = -1 }, "hash.workers"},
		{"mysql dsn", func(c *config.Config) { c.Store.DSN = "mysql://db/auth" }, "unsupported store dsn scheme"},
		{"zero timeout", func(c *config.Config) { c.Store.Timeout = 0 }, "store.timeout"},
		{"bad glob", func(c *config.Config) { c.Policy.BlockedEmailDomains = []string{"[abc"} }, "policy"},
		{"zero burst", func(c *config.Config) { c.RateLimit.LoginBurst = 0 }, "login_burst"},
		{"zero interval", func(c *config.Config) { c.RateLimit.LoginInterval = 0 }, "login_interval"},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, "log level"},
		{"relative pushgateway", func(c *config.Config) { c.Metrics.PushgatewayURL = "pushgateway:9091" }, "pushgateway_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblemUnderOneCode(t *testing.T) {
	cfg := validConfig()
	cfg.Token.Secret = "short"
	cfg.Hash.Algorithm = "md5"
	cfg.Store.DSN = "mysql://db/auth"
	cfg.Policy.BlockedEmailDomains = []string{"[abc"}
	cfg.Log.Level = "trace"

	err := cfg.Validate()
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "keys", []string{"token", "hash", "store.dsn", "policy", "log.level"})

	for _, want := range []string{
		"token: signing secret must be at least 32 bytes",
		"hash: unsupported hash algorithm",
		"store.dsn: unsupported store dsn scheme",
		"policy: ",
		"log.level: log level must be debug, info, warn or error",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestConfig_Builders(t *testing.T) {
	cfg := validConfig()
	cfg.Token.KeyID = "2026-03"
	cfg.Token.PreviousKeys = map[string]string{"2025-09": strings.Repeat("p", auth.MinSecretLength)}
	cfg.Hash.Algorithm = auth.AlgorithmBcrypt
	cfg.Hash.BcryptCost = 11

	keys, err := cfg.KeySet()
	require.NoError(t, err)
	assert.Equal(t, "2026-03", keys.ActiveID())
	assert.Equal(t, []string{"2025-09", "2026-03"}, keys.IDs())

	policy := cfg.HashPolicy()
	assert.Equal(t, auth.AlgorithmBcrypt, policy.Algorithm)
	assert.Equal(t, 11, policy.BcryptCost)

	_, err = cfg.AuthPolicy()
	require.NoError(t, err)
	assert.NotNil(t, cfg.LoginLimiter())
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	cfg.Token.PreviousKeys = map[string]string{"0": strings.Repeat("p", 40)}

	out := cfg.Redacted()
	assert.Equal(t, "[redacted]", out.Token.Secret)
	assert.Equal(t, map[string]string{"0": "[redacted]"}, out.Token.PreviousKeys)
	assert.Equal(t, "postgres://tbook:xxxxx@db:5432/auth", out.Store.DSN)

	assert.Equal(t, secret, cfg.Token.Secret, "original is untouched")
	assert.Equal(t, strings.Repeat("p", 40), cfg.Token.PreviousKeys["0"])

	cfg.Store.DSN = "sqlite:///var/lib/auth.db"
	assert.Equal(t, "sqlite:///var/lib/auth.db", cfg.Redacted().Store.DSN)
}

func TestDuration_Text(t *testing.T) {
	var d config.Duration
	require.NoError(t, d.UnmarshalText([]byte(" 90m ")))
	assert.Equal(t, 90*time.Minute, time.Duration(d))

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", string(text))

	errutil.AssertErrorCode(t, d.UnmarshalText([]byte("ninety")), "CONFIG_INVALID")
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load(config.LoadOptions{Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
}

func TestLoad_XDGDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tbook-auth"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tbook-auth", "config.yaml"),
		[]byte("log:\n  level: debug\n"), 0o600))

	cfg, err := config.Load(config.LoadOptions{Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Layers(t *testing.T) {
	path := writeFile(t, `
token:
  secret: `+secret+`
  key_id: "2026"
  ttl: 24h
hash:
  algorithm: bcrypt
  bcrypt_cost: 11
store:
  dsn: sqlite:///from/file.db
  timeout: 2s
policy:
  blocked_email_domains: ["*.test"]
log:
  format: text
  level: warn
`)

	environ := map[string]string{
		"TBOOK_STORE_DSN":                    "postgres://env@db/auth",
		"TBOOK_LOG_LEVEL":                    "error",
		"TBOOK_RATELIMIT_LOGIN_INTERVAL":     "1m",
		"TBOOK_TOKEN_PREVIOUS_KEYS":          "2025:" + strings.Repeat("p", 32),
		"TBOOK_POLICY_BLOCKED_EMAIL_DOMAINS": "*.test,mailinator.com",
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level=debug", "--token-ttl=2h"}))

	cfg, err := config.Load(config.LoadOptions{File: path, Flags: fs, Environ: environ})
	require.NoError(t, err)

	// file
	assert.Equal(t, secret, cfg.Token.Secret)
	assert.Equal(t, "2026", cfg.Token.KeyID)
	assert.Equal(t, auth.AlgorithmBcrypt, cfg.Hash.Algorithm)
	assert.Equal(t, 11, cfg.Hash.BcryptCost)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Store.Timeout))
	assert.Equal(t, "text", cfg.Log.Format)
	// defaults survive a partial file
	assert.Equal(t, uint32(auth.DefaultArgon2Time), cfg.Hash.Time)
	assert.Equal(t, auth.DefaultLoginBurst, cfg.RateLimit.LoginBurst)
	// environment over file
	assert.Equal(t, "postgres://env@db/auth", cfg.Store.DSN)
	assert.Equal(t, time.Minute, time.Duration(cfg.RateLimit.LoginInterval))
	assert.Equal(t, map[string]string{"2025": strings.Repeat("p", 32)}, cfg.Token.PreviousKeys)
	assert.Equal(t, []string{"*.test", "mailinator.com"}, cfg.Policy.BlockedEmailDomains)
	// flags over environment
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Hour, time.Duration(cfg.Token.TTL))

	require.NoError(t, cfg.Validate())
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	path := writeFile(t, "hash:\n  algorithm: bcrypt\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := config.Load(config.LoadOptions{File: path, Flags: fs, Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, auth.AlgorithmBcrypt, cfg.Hash.Algorithm)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		_, err := config.Load(config.LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml")})
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeFile(t, "token:\n  secrt: typo\n")
		_, err := config.Load(config.LoadOptions{File: path, Environ: map[string]string{}})
		errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_INVALID")
		errutil.AssertErrorContext(t, err, "path", path)
	})

	t.Run("bad environment value", func(t *testing.T) {
		path := writeFile(t, "")
		_, err := config.Load(config.LoadOptions{
			File:    path,
			Environ: map[string]string{"TBOOK_HASH_WORKERS": "many"},
		})
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
		errutil.AssertErrorContext(t, err, "source", "environment")
	})
}
