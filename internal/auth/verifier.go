// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenVerifier validates session tokens against the credential store.
//
// A token is accepted while now < exp and its generation equals the
// identity's current generation. Expired and revoked are terminal: a token
// never becomes valid again once either applies.
type TokenVerifier struct {
	cfg    TokenConfig
	store  CredentialStore
	parser *jwt.Parser
}

// NewTokenVerifier creates a TokenVerifier.
func NewTokenVerifier(cfg TokenConfig, store CredentialStore) (*TokenVerifier, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("credential store is required")
	}
	return &TokenVerifier{
		cfg:   cfg,
		store: store,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(cfg.Now),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// Verify parses the token, checks signature and expiry, loads the subject
// and checks the generation. Rejections wrap ErrTokenMalformed,
// ErrTokenBadSignature, ErrTokenExpired, ErrTokenRevoked or
// ErrUnknownSubject. Store failures are returned as-is.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &sessionClaims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc); err != nil {
		return nil, classifyParseError(err)
	}

	if claims.Generation == nil || claims.IssuedAt == nil {
		return nil, oops.Code(CodeTokenMalformed).Wrapf(ErrTokenMalformed, "missing required claim")
	}
	subject, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code(CodeTokenMalformed).
			With("subject", claims.Subject).
			Wrapf(ErrTokenMalformed, "subject is not a valid id")
	}

	identity, err := v.store.FindByID(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeTokenUnknownSubject).
			With("subject", subject.String()).
			Wrap(ErrUnknownSubject)
	}
	if err != nil {
		return nil, oops.With("operation", "find token subject").
			With("subject", subject.String()).
			Wrap(err)
	}

	if *claims.Generation != identity.TokenGeneration {
		return nil, oops.Code(CodeTokenRevoked).
			With("subject", subject.String()).
			With("token_generation", *claims.Generation).
			With("current_generation", identity.TokenGeneration).
			Wrap(ErrTokenRevoked)
	}

	return identity, nil
}

func (v *TokenVerifier) keyFunc(token *jwt.Token) (any, error) {
	kid := ""
	if raw, present := token.Header["kid"]; present {
		s, ok := raw.(string)
		if !ok {
			return nil, oops.Errorf("key id must be a string")
		}
		kid = s
	}
	key, ok := v.cfg.Keys.lookup(kid)
	if !ok {
		return nil, oops.With("kid", kid).Errorf("unknown signing key")
	}
	return key, nil
}

// classifyParseError maps jwt parse failures onto rejection reasons.
// The jwt library verifies the signature before any claim, so a forged
// token that is also expired reports BadSignature.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return oops.Code(CodeTokenMalformed).Wrap(errors.Join(ErrTokenMalformed, err))
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return oops.Code(CodeTokenBadSignature).Wrap(errors.Join(ErrTokenBadSignature, err))
	case errors.Is(err, jwt.ErrTokenExpired):
		return oops.Code(CodeTokenExpired).Wrap(errors.Join(ErrTokenExpired, err))
	default:
		return oops.Code(CodeTokenMalformed).Wrap(errors.Join(ErrTokenMalformed, err))
	}
}
