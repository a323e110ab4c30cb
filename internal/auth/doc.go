// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package auth provides the credential and session-token engine.
//
// # Components
//
//   - Hasher - argon2id (default) and bcrypt password hashing
//   - HashPool - bounds concurrent hashing to the number of cores
//   - CredentialStore - persistence contract implemented by the postgres,
//     sqlite and memory subpackages
//   - TokenIssuer / TokenVerifier - HS256 session tokens bound to an
//     identity's token generation
//   - Service - register, login, verify, revoke-all and password change
//
// # Revocation
//
// Tokens are never stored. Each carries the identity's token generation at
// issue time; bumping the generation makes every earlier token fail
// verification with ErrTokenRevoked.
//
// # Errors
//
// Errors are oops errors wrapping one of the package sentinels. Use KindOf
// to classify them and Failed to turn them into a caller-facing Result.
package auth
