// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import "errors"

// Error codes attached to oops errors produced by this package and its stores.
const (
	CodeInvalidInput        = "AUTH_INVALID_INPUT"
	CodeDuplicateEmail      = "AUTH_DUPLICATE_EMAIL"
	CodeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	CodeRateLimited         = "AUTH_RATE_LIMITED"
	CodeHashingFailed       = "AUTH_HASHING_FAILED"
	CodeInvalidHash         = "AUTH_INVALID_HASH"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	CodeTokenMalformed      = "TOKEN_MALFORMED"
	CodeTokenBadSignature   = "TOKEN_BAD_SIGNATURE"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenRevoked        = "TOKEN_REVOKED"
	CodeTokenUnknownSubject = "TOKEN_UNKNOWN_SUBJECT"
)

// Sentinel errors identifying each error kind. Match them with errors.Is.
var (
	// ErrNotFound is returned when a requested identity does not exist.
	ErrNotFound = errors.New("not found")

	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("too many attempts")

	// ErrHashing marks infrastructure failures while hashing, such as an
	// exhausted entropy source or a hashing slot that never became free.
	ErrHashing = errors.New("password hashing failed")

	// ErrStoreUnavailable marks transient credential store failures.
	// Callers may retry with backoff.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenRevoked      = errors.New("token revoked")
	ErrUnknownSubject    = errors.New("token subject unknown")
)

// Kind classifies an error into the stable categories callers act on.
type Kind string

// Error kinds.
const (
	KindNone               Kind = ""
	KindInvalidInput       Kind = "invalid_input"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindRateLimited        Kind = "rate_limited"
	KindNotFound           Kind = "not_found"
	KindHashing            Kind = "hashing_error"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindMalformed          Kind = "malformed"
	KindBadSignature       Kind = "bad_signature"
	KindExpired            Kind = "expired"
	KindRevoked            Kind = "revoked"
	KindUnknownSubject     Kind = "unknown_subject"
	KindInternal           Kind = "internal"
)

var kindSentinels = []struct {
	err  error
	kind Kind
}{
	{ErrTokenMalformed, KindMalformed},
	{ErrTokenBadSignature, KindBadSignature},
	{ErrTokenExpired, KindExpired},
	{ErrTokenRevoked, KindRevoked},
	{ErrUnknownSubject, KindUnknownSubject},
	{ErrRateLimited, KindRateLimited},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrDuplicateEmail, KindDuplicateEmail},
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrHashing, KindHashing},
}

// KindOf classifies err. Errors that match no known sentinel are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindInternal
}

// IsTokenRejection reports whether k is one of the token rejection reasons.
func (k Kind) IsTokenRejection() bool {
	switch k {
	case KindMalformed, KindBadSignature, KindExpired, KindRevoked, KindUnknownSubject:
		return true
	default:
		return false
	}
}

// IsTransient reports whether a caller may retry the failed operation unchanged.
func (k Kind) IsTransient() bool {
	return k == KindStoreUnavailable || k == KindHashing
}

// PolicyError describes an input rule that was violated. Its message is safe
// to show to callers.
type PolicyError struct {
	Field   string
	Message string
}

func (e *PolicyError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap ties every PolicyError to ErrInvalidInput.
func (e *PolicyError) Unwrap() error {
	return ErrInvalidInput
}
