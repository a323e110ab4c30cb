// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package config loads tbook-auth configuration from defaults, a YAML file,
// TBOOK_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	"github.com/tuanpham24/tbook-auth/internal/logging"
	"github.com/tuanpham24/tbook-auth/internal/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TBOOK_"

const redacted = "[redacted]"

// Config is the complete tbook-auth configuration.
type Config struct {
	Token     TokenConfig     `koanf:"token" json:"token,omitempty" yaml:"token" envPrefix:"TOKEN_"`
	Hash      HashConfig      `koanf:"hash" json:"hash,omitempty" yaml:"hash" envPrefix:"HASH_"`
	Store     StoreConfig     `koanf:"store" json:"store,omitempty" yaml:"store" envPrefix:"STORE_"`
	Policy    PolicyConfig    `koanf:"policy" json:"policy,omitempty" yaml:"policy" envPrefix:"POLICY_"`
	RateLimit RateLimitConfig `koanf:"ratelimit" json:"ratelimit,omitempty" yaml:"ratelimit" envPrefix:"RATELIMIT_"`
	Log       LogConfig       `koanf:"log" json:"log,omitempty" yaml:"log" envPrefix:"LOG_"`
	Metrics   MetricsConfig   `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics" envPrefix:"METRICS_"`
}

// TokenConfig configures session token signing.
type TokenConfig struct {
	Secret       string            `koanf:"secret" json:"secret,omitempty" yaml:"secret" env:"SECRET" jsonschema:"description=HS256 signing secret of at least 32 bytes"`
	KeyID        string            `koanf:"key_id" json:"key_id,omitempty" yaml:"key_id" env:"KEY_ID" jsonschema:"description=Key epoch written into the token kid header"`
	PreviousKeys map[string]string `koanf:"previous_keys" json:"previous_keys,omitempty" yaml:"previous_keys,omitempty" env:"PREVIOUS_KEYS" jsonschema:"description=Retired key epochs that still verify"`
	TTL          Duration          `koanf:"ttl" json:"ttl,omitempty" yaml:"ttl" env:"TTL"`
}

// HashConfig configures password hashing.
type HashConfig struct {
	Algorithm  string `koanf:"algorithm" json:"algorithm,omitempty" yaml:"algorithm" env:"ALGORITHM" jsonschema:"enum=argon2id,enum=bcrypt"`
	Time       uint32 `koanf:"time" json:"time,omitempty" yaml:"time" env:"TIME" jsonschema:"minimum=1"`
	MemoryKiB  uint32 `koanf:"memory_kib" json:"memory_kib,omitempty" yaml:"memory_kib" env:"MEMORY_KIB"`
	Threads    uint8  `koanf:"threads" json:"threads,omitempty" yaml:"threads" env:"THREADS" jsonschema:"minimum=1"`
	BcryptCost int    `koanf:"bcrypt_cost" json:"bcrypt_cost,omitempty" yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	Workers    int    `koanf:"workers" json:"workers,omitempty" yaml:"workers" env:"WORKERS" jsonschema:"description=Concurrent hashing slots; 0 uses the CPU count"`
}

// StoreConfig configures the credential store.
type StoreConfig struct {
	DSN      string   `koanf:"dsn" json:"dsn,omitempty" yaml:"dsn" env:"DSN" jsonschema:"description=postgres:// or sqlite:// data source"`
	Timeout  Duration `koanf:"timeout" json:"timeout,omitempty" yaml:"timeout" env:"TIMEOUT"`
	MaxConns int32    `koanf:"max_conns" json:"max_conns,omitempty" yaml:"max_conns" env:"MAX_CONNS"`
}

// PolicyConfig configures input validation.
type PolicyConfig struct {
	MinPasswordLength   int      `koanf:"min_password_length" json:"min_password_length,omitempty" yaml:"min_password_length" env:"MIN_PASSWORD_LENGTH"`
	BlockedEmailDomains []string `koanf:"blocked_email_domains" json:"blocked_email_domains,omitempty" yaml:"blocked_email_domains,omitempty" env:"BLOCKED_EMAIL_DOMAINS"`
}

// RateLimitConfig configures the login limiter.
type RateLimitConfig struct {
	LoginBurst    int      `koanf:"login_burst" json:"login_burst,omitempty" yaml:"login_burst" env:"LOGIN_BURST"`
	LoginInterval Duration `koanf:"login_interval" json:"login_interval,omitempty" yaml:"login_interval" env:"LOGIN_INTERVAL"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" env:"FORMAT" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" env:"LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url" json:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty" env:"PUSHGATEWAY_URL"`
}

// Default returns the built-in configuration. It has no secret and no DSN.
func Default() Config {
	hash := auth.DefaultHashPolicy()
	return Config{
		Token: TokenConfig{
			KeyID: "1",
			TTL:   Duration(auth.DefaultTokenTTL),
		},
		Hash: HashConfig{
			Algorithm:  hash.Algorithm,
			Time:       hash.Time,
			MemoryKiB:  hash.MemoryKiB,
			Threads:    hash.Threads,
			BcryptCost: hash.BcryptCost,
		},
		Store: StoreConfig{
			Timeout: Duration(5 * time.Second),
		},
		Policy: PolicyConfig{
			MinPasswordLength: auth.MinPasswordLength,
		},
		RateLimit: RateLimitConfig{
			LoginBurst:    auth.DefaultLoginBurst,
			LoginInterval: Duration(auth.DefaultLoginInterval),
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var (
		errs []error
		keys []string
	)
	// Problems are flattened to plain errors so CONFIG_INVALID stays the
	// code of the result; oops reports the innermost code in a chain.
	add := func(key string, err error) {
		if err != nil {
			keys = append(keys, key)
			errs = append(errs, fmt.Errorf("%s: %s", key, err.Error()))
		}
	}

	if _, err := c.KeySet(); err != nil {
		add("token", err)
	}
	if time.Duration(c.Token.TTL) < time.Second {
		add("token.ttl", errors.New("must be at least 1s"))
	}
	add("hash", c.HashPolicy().Validate())
	if c.Hash.Workers < 0 {
		add("hash.workers", errors.New("must not be negative"))
	}

	if _, err := store.BackendOf(c.Store.DSN); err != nil {
		add("store.dsn", err)
	}
	if c.Store.Timeout <= 0 {
		add("store.timeout", errors.New("must be positive"))
	}
	if c.Store.MaxConns < 0 {
		add("store.max_conns", errors.New("must not be negative"))
	}

	if _, err := c.AuthPolicy(); err != nil {
		add("policy", err)
	}
	if c.RateLimit.LoginBurst < 1 {
		add("ratelimit.login_burst", errors.New("must be at least 1"))
	}
	if c.RateLimit.LoginInterval <= 0 {
		add("ratelimit.login_interval", errors.New("must be positive"))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		add("log.format", errors.New("must be json or text"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", err)
	}
	if c.Metrics.PushgatewayURL != "" {
		if u, err := url.Parse(c.Metrics.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("metrics.pushgateway_url", errors.New("must be an absolute URL"))
		}
	}

	if len(errs) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("keys", keys).
			Wrap(errors.Join(errs...))
	}
	return nil
}

// HashPolicy returns the hashing policy for new hashes.
func (c *Config) HashPolicy() auth.HashPolicy {
	return auth.HashPolicy{
		Algorithm:  c.Hash.Algorithm,
		Time:       c.Hash.Time,
		MemoryKiB:  c.Hash.MemoryKiB,
		Threads:    c.Hash.Threads,
		BcryptCost: c.Hash.BcryptCost,
	}
}

// KeySet builds the signing key set from the token section.
func (c *Config) KeySet() (*auth.KeySet, error) {
	previous := make(map[string][]byte, len(c.Token.PreviousKeys))
	for id, secret := range c.Token.PreviousKeys {
		previous[id] = []byte(secret)
	}
	return auth.NewKeySet(c.Token.KeyID, []byte(c.Token.Secret), previous)
}

// AuthPolicy builds the email and password policy.
func (c *Config) AuthPolicy() (*auth.Policy, error) {
	return auth.NewPolicy(c.Policy.MinPasswordLength, c.Policy.BlockedEmailDomains)
}

// LoginLimiter builds the login rate limiter.
func (c *Config) LoginLimiter() *auth.LoginLimiter {
	return auth.NewLoginLimiter(c.RateLimit.LoginBurst, time.Duration(c.RateLimit.LoginInterval))
}

// Redacted returns a copy safe to print: secrets and DSN passwords are masked.
func (c Config) Redacted() Config {
	if c.Token.Secret != "" {
		c.Token.Secret = redacted
	}
	if len(c.Token.PreviousKeys) > 0 {
		keys := make(map[string]string, len(c.Token.PreviousKeys))
		for id := range c.Token.PreviousKeys {
			keys[id] = redacted
		}
		c.Token.PreviousKeys = keys
	}
	if u, err := url.Parse(c.Store.DSN); err == nil && u.User != nil {
		c.Store.DSN = u.Redacted()
	}
	return c
}

// Duration is a time.Duration written as a Go duration string ("30s", "720h").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("value", string(text)).Wrap(err)
	}
	*d = Duration(v)
	return nil
}

// JSONSchema describes Duration as a duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration, for example 30s or 720h",
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
