// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuanpham24/tbook-auth/internal/auth"
	"github.com/tuanpham24/tbook-auth/internal/auth/memory"
)

// fastPolicy keeps argon2id cheap enough for unit tests.
func fastPolicy() auth.HashPolicy {
	return auth.HashPolicy{
		Algorithm:  auth.AlgorithmArgon2id,
		Time:       1,
		MemoryKiB:  64,
		Threads:    1,
		BcryptCost: 4,
	}
}

func testSecret(fill string) []byte {
	return []byte(strings.Repeat(fill, auth.MinSecretLength))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memory.Store
	hasher   *auth.Hasher
	clock    *fakeClock
	keys     *auth.KeySet
	issuer   *auth.TokenIssuer
	verifier *auth.TokenVerifier
	svc      *auth.Service
}

func newFixture(t *testing.T, opts ...auth.ServiceOption) *fixture {
	t.Helper()

	f := &fixture{
		store: memory.NewStore(),
		clock: newFakeClock(),
	}

	var err error
	f.hasher, err = auth.NewHasher(fastPolicy())
	require.NoError(t, err)

	f.keys, err = auth.NewKeySet("k1", testSecret("a"), nil)
	require.NoError(t, err)

	cfg := auth.TokenConfig{Keys: f.keys, TTL: auth.DefaultTokenTTL, Now: f.clock.Now}
	f.issuer, err = auth.NewTokenIssuer(cfg)
	require.NoError(t, err)
	f.verifier, err = auth.NewTokenVerifier(cfg, f.store)
	require.NoError(t, err)

	pool := auth.NewHashPool(f.hasher, 0, nil)
	f.svc, err = auth.NewAuthService(f.store, pool, f.issuer, f.verifier, opts...)
	require.NoError(t, err)
	return f
}
