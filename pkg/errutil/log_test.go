// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanpham24/tbook-auth/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STORE_UNAVAILABLE").
		With("operation", "find identity").
		Errorf("connection refused")

	errutil.LogError(context.Background(), logger, "login failed", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "login failed", entry["msg"])
	assert.Equal(t, "STORE_UNAVAILABLE", entry["code"])
	require.Contains(t, entry, "context")
	assert.Equal(t, "find identity", entry["context"].(map[string]any)["operation"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(context.Background(), logger, "login failed", errors.New("standard error"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

func TestAttrs_OmitsEmptyCode(t *testing.T) {
	attrs := errutil.Attrs(oops.With("k", "v").Errorf("no code"))
	assert.NotContains(t, attrs, "code")
	assert.Contains(t, attrs, "context")
}
