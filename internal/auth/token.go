// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the session token lifetime.
const DefaultTokenTTL = 30 * 24 * time.Hour

// SessionToken is a signed, time-bounded credential. It is never persisted;
// Value carries everything needed to verify it.
type SessionToken struct {
	Value      string
	SubjectID  ulid.ULID
	Generation int64
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenConfig is the immutable configuration shared by TokenIssuer and
// TokenVerifier.
type TokenConfig struct {
	Keys *KeySet
	TTL  time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (c TokenConfig) validate() (TokenConfig, error) {
	if c.Keys == nil {
		return c, oops.Code("TOKEN_CONFIG_INVALID").Errorf("key set is required")
	}
	if c.TTL == 0 {
		c.TTL = DefaultTokenTTL
	}
	if c.TTL < time.Second {
		return c, oops.Code("TOKEN_CONFIG_INVALID").With("ttl", c.TTL).Errorf("token TTL must be at least one second")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}

// sessionClaims is the token payload: sub, gen, iat and exp.
type sessionClaims struct {
	Generation *int64 `json:"gen"`
	jwt.RegisteredClaims
}

// TokenIssuer mints HS256 session tokens.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.cfg.TTL
}

// Issue signs a token bound to the identity and its current generation.
// The output depends only on the identity, the clock and the key set.
func (i *TokenIssuer) Issue(identity *Identity) (SessionToken, error) {
	if identity == nil {
		return SessionToken{}, oops.Code("TOKEN_ISSUE_FAILED").Errorf("identity is required")
	}

	// NumericDate has one-second precision; truncate so the returned
	// times match what a verifier will decode.
	now := i.cfg.Now().Truncate(time.Second)
	expiresAt := now.Add(i.cfg.TTL).Truncate(time.Second)
	gen := identity.TokenGeneration

	claims := sessionClaims{
		Generation: &gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if kid := i.cfg.Keys.ActiveID(); kid != "" {
		token.Header["kid"] = kid
	}

	signed, err := token.SignedString(i.cfg.Keys.signingKey())
	if err != nil {
		return SessionToken{}, oops.Code("TOKEN_ISSUE_FAILED").
			With("identity_id", identity.ID.String()).
			Wrap(err)
	}

	return SessionToken{
		Value:      signed,
		SubjectID:  identity.ID,
		Generation: gen,
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
	}, nil
}
