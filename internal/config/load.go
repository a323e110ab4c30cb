// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/tuanpham24/tbook-auth/internal/xdg"
)

// Override flags registered by BindFlags, keyed by flag name.
var flagKeys = map[string]string{
	"store-dsn":      "store.dsn",
	"token-ttl":      "token.ttl",
	"hash-algorithm": "hash.algorithm",
	"log-format":     "log.format",
	"log-level":      "log.level",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is the YAML config path. Empty means the XDG default, which may
	// be absent. An explicit path must exist.
	File string

	// Flags holds the override flags registered by BindFlags. Only flags
	// set on the command line are applied.
	Flags *pflag.FlagSet

	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// BindFlags registers the config override flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("store-dsn", "", "credential store DSN (postgres:// or sqlite://)")
	fs.Duration("token-ttl", 0, "session token lifetime (default "+d.Token.TTL.String()+")")
	fs.String("hash-algorithm", "", "algorithm for new hashes: argon2id or bcrypt (default "+d.Hash.Algorithm+")")
	fs.String("log-format", "", "log format: json or text (default "+d.Log.Format+")")
	fs.String("log-level", "", "log level: debug, info, warn or error (default "+d.Log.Level+")")
}

// String implements fmt.Stringer for flag help text.
func (d Duration) String() string {
	text, _ := d.MarshalText() //nolint:errcheck // never fails
	return string(text)
}

// Load builds the effective configuration. Later sources win: defaults,
// then the YAML file, then TBOOK_* environment variables, then flags.
// The result is not validated; call Validate.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path, required := opts.File, true
	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(); err != nil {
			return nil, err
		}
		required = false
	}
	if err := loadFile(&cfg, path, required); err != nil {
		return nil, err
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if opts.Environ != nil {
		envOpts.Environment = opts.Environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		if err := loadFlags(&cfg, opts.Flags); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if !fileExists(path) {
		if required {
			return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Errorf("config file not found")
		}
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateSchema(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

func loadFlags(cfg *Config, fs *pflag.FlagSet) error {
	k := koanf.New(".")
	provider := posflag.ProviderWithFlag(fs, ".", nil, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, f.Value.String()
	})
	if err := k.Load(provider, nil); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}
	return nil
}
