// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package xdg provides XDG Base Directory paths for tbook-auth.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "tbook-auth"

// ConfigDir returns the XDG config directory for tbook-auth.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for tbook-auth.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return dir("XDG_DATA_HOME", ".local", "share")
}

// ConfigFile returns the default config file path.
func ConfigFile() (string, error) {
	base, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DefaultSQLiteDSN returns a sqlite:// DSN inside DataDir.
func DefaultSQLiteDSN() (string, error) {
	base, err := DataDir()
	if err != nil {
		return "", err
	}
	return "sqlite://" + filepath.Join(base, "auth.db"), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_DIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

func dir(env string, fallback ...string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", oops.Code("XDG_HOME_UNKNOWN").With("env", env).Wrap(err)
		}
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}
