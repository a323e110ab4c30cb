// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanpham24/tbook-auth/pkg/errutil"
)

const tracerName = "github.com/tuanpham24/tbook-auth/internal/auth"

// Service orchestrates registration, login, revocation and password changes.
type Service struct {
	store    CredentialStore
	hasher   PasswordHasher
	issuer   *TokenIssuer
	verifier *TokenVerifier
	policy   *Policy
	limiter  *LoginLimiter
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
	dummy    HashRecord
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithPolicy sets the input policy. Defaults to DefaultPolicy().
func WithPolicy(policy *Policy) ServiceOption {
	return func(s *Service) { s.policy = policy }
}

// WithLoginLimiter enables per-email login rate limiting.
func WithLoginLimiter(limiter *LoginLimiter) ServiceOption {
	return func(s *Service) { s.limiter = limiter }
}

// WithObserver sets the metrics observer.
func WithObserver(observer Observer) ServiceOption {
	return func(s *Service) { s.observer = observer }
}

// NewAuthService creates a new Service. Every collaborator is required.
func NewAuthService(
	store CredentialStore,
	hasher PasswordHasher,
	issuer *TokenIssuer,
	verifier *TokenVerifier,
	opts ...ServiceOption,
) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("token verifier is required")
	}

	s := &Service{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		policy:   DefaultPolicy(),
		observer: nopObserver{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		return nil, oops.Errorf("logger cannot be nil")
	}
	if s.policy == nil {
		return nil, oops.Errorf("policy cannot be nil")
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}

	if d, ok := hasher.(dummySource); ok {
		s.dummy = d.DummyRecord()
	} else {
		s.dummy = dummyRecordFor(DefaultHashPolicy())
	}
	return s, nil
}

// Register creates an identity and returns its first session token.
func (s *Service) Register(ctx context.Context, email, password string) (token SessionToken, err error) {
	ctx, done := s.begin(ctx, "register")
	defer func() { done(err) }()

	email = NormalizeEmail(email)
	if err := s.policy.ValidateEmail(email); err != nil {
		return SessionToken{}, err
	}
	if err := s.policy.ValidatePassword(password); err != nil {
		return SessionToken{}, err
	}

	record, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return SessionToken{}, oops.With("operation", "hash password").Wrap(err)
	}

	identity, err := s.store.Create(ctx, email, record)
	if err != nil {
		return SessionToken{}, oops.With("operation", "create identity").Wrap(err)
	}

	s.logger.InfoContext(ctx, "identity registered", "identity", identity)
	return s.issue(identity)
}

// Login checks the credentials and returns a new session token.
//
// An unknown email and a wrong password produce the same error. For unknown
// emails a dummy hash is still verified so the response time is the same.
func (s *Service) Login(ctx context.Context, email, password string) (token SessionToken, err error) {
	ctx, done := s.begin(ctx, "login")
	defer func() { done(err) }()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return SessionToken{}, invalidCredentials()
	}

	if s.limiter != nil && !s.limiter.Allow(email) {
		return SessionToken{}, oops.Code(CodeRateLimited).Wrap(ErrRateLimited)
	}

	identity, lookupErr := s.store.FindByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return SessionToken{}, oops.With("operation", "find identity by email").Wrap(lookupErr)
	}

	target := s.dummy
	if identity != nil {
		target = identity.PasswordHash
	}

	// Always verify so both paths cost the same.
	valid, verifyErr := s.hasher.Verify(ctx, password, target)
	if identity == nil {
		if verifyErr != nil && errors.Is(verifyErr, ErrHashing) {
			return SessionToken{}, oops.With("operation", "verify password").Wrap(verifyErr)
		}
		return SessionToken{}, invalidCredentials()
	}
	if verifyErr != nil {
		return SessionToken{}, oops.With("operation", "verify password").
			With("identity_id", identity.ID.String()).
			Wrap(verifyErr)
	}
	if !valid {
		return SessionToken{}, invalidCredentials()
	}

	if s.limiter != nil {
		s.limiter.Reset(email)
	}
	if s.hasher.NeedsRehash(identity.PasswordHash) {
		s.logger.DebugContext(ctx, "password hash uses outdated parameters",
			"identity", identity,
			"hash_params", identity.PasswordHash)
	}

	return s.issue(identity)
}

// Verify validates a session token and returns its identity.
func (s *Service) Verify(ctx context.Context, tokenString string) (identity *Identity, err error) {
	ctx, done := s.begin(ctx, "verify")
	defer func() { done(err) }()

	return s.verifier.Verify(ctx, tokenString)
}

// RevokeAll invalidates every token issued so far for the identity.
func (s *Service) RevokeAll(ctx context.Context, id ulid.ULID) (err error) {
	ctx, done := s.begin(ctx, "revoke_all")
	defer func() { done(err) }()

	if err := s.store.BumpGeneration(ctx, id); err != nil {
		return oops.With("operation", "bump generation").
			With("identity_id", id.String()).
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "tokens revoked", "identity_id", id.String())
	return nil
}

// ChangePassword replaces the password after checking the current one.
// All earlier tokens are revoked; the returned token carries the new
// generation.
func (s *Service) ChangePassword(ctx context.Context, id ulid.ULID, current, next string) (token SessionToken, err error) {
	ctx, done := s.begin(ctx, "change_password")
	defer func() { done(err) }()

	if current == "" {
		return SessionToken{}, policyViolation("current_password", "current password is required")
	}
	if err := s.policy.ValidatePassword(next); err != nil {
		return SessionToken{}, err
	}

	key := "id:" + id.String()
	if s.limiter != nil && !s.limiter.Allow(key) {
		return SessionToken{}, oops.Code(CodeRateLimited).Wrap(ErrRateLimited)
	}

	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return SessionToken{}, oops.With("operation", "find identity by id").
			With("identity_id", id.String()).
			Wrap(err)
	}

	valid, err := s.hasher.Verify(ctx, current, identity.PasswordHash)
	if err != nil {
		return SessionToken{}, oops.With("operation", "verify password").
			With("identity_id", id.String()).
			Wrap(err)
	}
	if !valid {
		return SessionToken{}, invalidCredentials()
	}

	record, err := s.hasher.Hash(ctx, next)
	if err != nil {
		return SessionToken{}, oops.With("operation", "hash password").Wrap(err)
	}

	generation, err := s.store.UpdatePassword(ctx, id, record)
	if err != nil {
		return SessionToken{}, oops.With("operation", "update password").
			With("identity_id", id.String()).
			Wrap(err)
	}

	if s.limiter != nil {
		s.limiter.Reset(key)
	}

	updated := *identity
	updated.PasswordHash = record
	updated.TokenGeneration = generation
	s.logger.InfoContext(ctx, "password changed", "identity", &updated)
	return s.issue(&updated)
}

func (s *Service) issue(identity *Identity) (SessionToken, error) {
	token, err := s.issuer.Issue(identity)
	if err != nil {
		return SessionToken{}, oops.With("operation", "issue token").Wrap(err)
	}
	return token, nil
}

// begin starts a span for operation and returns a func that records the
// outcome, logs unexpected failures and ends the span.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "auth."+operation)

	return ctx, func(err error) {
		outcome := outcomeOf(err)
		s.observer.ObserveOperation(operation, outcome, time.Since(start))
		span.SetAttributes(attribute.String("auth.outcome", outcome))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			if kind := KindOf(err); kind == KindInternal || kind.IsTransient() {
				errutil.LogError(ctx, s.logger, "auth "+operation+" failed", err)
			}
		}
		span.End()
	}
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}
