// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Default argon2id parameters, tuned for roughly 100-300ms per hash on
// current server hardware. Use the calibrate command to check a host.
const (
	DefaultArgon2Time      = 3         // iterations
	DefaultArgon2MemoryKiB = 64 * 1024 // 64 MB
	DefaultArgon2Threads   = 4         // parallelism
	DefaultBcryptCost      = 12

	argon2SaltLen = 16 // salt length in bytes
	argon2KeyLen  = 32 // output length in bytes

	maxArgon2Time      = 64
	maxArgon2MemoryKiB = 4 * 1024 * 1024 // 4 GB
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash produces a salted hash of the password using the current policy.
	Hash(ctx context.Context, password string) (HashRecord, error)

	// Verify checks the password against a stored record.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// for a corrupt record.
	Verify(ctx context.Context, password string, record HashRecord) (bool, error)

	// NeedsRehash reports whether record was produced with a different
	// algorithm or cost than the current policy.
	NeedsRehash(record HashRecord) bool
}

// HashPolicy selects the algorithm and cost used for new hashes.
type HashPolicy struct {
	Algorithm  string
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	BcryptCost int
}

// DefaultHashPolicy returns the argon2id defaults.
func DefaultHashPolicy() HashPolicy {
	return HashPolicy{
		Algorithm:  AlgorithmArgon2id,
		Time:       DefaultArgon2Time,
		MemoryKiB:  DefaultArgon2MemoryKiB,
		Threads:    DefaultArgon2Threads,
		BcryptCost: DefaultBcryptCost,
	}
}

// Validate checks the policy parameters.
func (p HashPolicy) Validate() error {
	switch p.Algorithm {
	case AlgorithmArgon2id:
		if p.Threads == 0 {
			return oops.Code("HASH_POLICY_INVALID").Errorf("argon2id threads must be at least 1")
		}
		if p.Time == 0 || p.Time > maxArgon2Time {
			return oops.Code("HASH_POLICY_INVALID").With("time", p.Time).Errorf("argon2id time must be between 1 and %d", maxArgon2Time)
		}
		if p.MemoryKiB < 8*uint32(p.Threads) || p.MemoryKiB > maxArgon2MemoryKiB {
			return oops.Code("HASH_POLICY_INVALID").With("memory_kib", p.MemoryKiB).Errorf("argon2id memory must be between %d and %d KiB", 8*uint32(p.Threads), maxArgon2MemoryKiB)
		}
	case AlgorithmBcrypt:
		if p.BcryptCost < bcrypt.MinCost || p.BcryptCost > bcrypt.MaxCost {
			return oops.Code("HASH_POLICY_INVALID").With("bcrypt_cost", p.BcryptCost).Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
	default:
		return oops.Code("HASH_POLICY_INVALID").Errorf("unsupported hash algorithm: %q", p.Algorithm)
	}
	return nil
}

// Hasher implements PasswordHasher with argon2id and bcrypt.
// New hashes use the configured algorithm; Verify accepts either.
type Hasher struct {
	policy  HashPolicy
	entropy io.Reader
}

// NewHasher creates a Hasher for a validated policy.
func NewHasher(policy HashPolicy) (*Hasher, error) {
	return NewHasherWithEntropy(policy, rand.Reader)
}

// NewHasherWithEntropy creates a Hasher that draws argon2id salts from r.
func NewHasherWithEntropy(policy HashPolicy, r io.Reader) (*Hasher, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, oops.Errorf("entropy source is required")
	}
	return &Hasher{policy: policy, entropy: r}, nil
}

// Policy returns the policy used for new hashes.
func (h *Hasher) Policy() HashPolicy {
	return h.policy
}

// Hash produces a salted hash of the password.
func (h *Hasher) Hash(ctx context.Context, password string) (HashRecord, error) {
	if password == "" {
		return HashRecord{}, policyViolation("password", "password cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return HashRecord{}, hashingFailure("check context", err)
	}

	if h.policy.Algorithm == AlgorithmBcrypt {
		digest, err := bcrypt.GenerateFromPassword([]byte(password), h.policy.BcryptCost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return HashRecord{}, policyViolation("password", "password is too long")
		}
		if err != nil {
			return HashRecord{}, hashingFailure("bcrypt", err)
		}
		return HashRecord{
			Algorithm: AlgorithmBcrypt,
			Cost:      HashCost{Rounds: h.policy.BcryptCost},
			Digest:    digest,
		}, nil
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := io.ReadFull(h.entropy, salt); err != nil {
		return HashRecord{}, hashingFailure("generate salt", err)
	}

	digest := argon2.IDKey([]byte(password), salt, h.policy.Time, h.policy.MemoryKiB, h.policy.Threads, argon2KeyLen)

	return HashRecord{
		Algorithm: AlgorithmArgon2id,
		Version:   argon2.Version,
		Cost: HashCost{
			Time:      h.policy.Time,
			MemoryKiB: h.policy.MemoryKiB,
			Threads:   h.policy.Threads,
		},
		Salt:   salt,
		Digest: digest,
	}, nil
}

// Verify checks the password against a stored record in constant time.
func (h *Hasher) Verify(ctx context.Context, password string, record HashRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, hashingFailure("check context", err)
	}

	switch record.Algorithm {
	case AlgorithmArgon2id:
		return verifyArgon2id(password, record)
	case AlgorithmBcrypt:
		err := bcrypt.CompareHashAndPassword(record.Digest, []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, oops.Code(CodeInvalidHash).With("algorithm", AlgorithmBcrypt).Wrap(err)
	default:
		return false, oops.Code(CodeInvalidHash).Errorf("unsupported hash algorithm: %s", record.Algorithm)
	}
}

func verifyArgon2id(password string, record HashRecord) (bool, error) {
	cost := record.Cost
	if cost.Threads == 0 || cost.Time == 0 || cost.Time > maxArgon2Time || cost.MemoryKiB > maxArgon2MemoryKiB {
		return false, oops.Code(CodeInvalidHash).
			With("time", cost.Time).
			With("memory_kib", cost.MemoryKiB).
			With("threads", cost.Threads).
			Errorf("argon2id parameters out of range")
	}

	// Validate key length to prevent integer overflow in uint32 conversion
	keyLen := len(record.Digest)
	if keyLen == 0 || keyLen > 1<<10 {
		return false, oops.Code(CodeInvalidHash).Errorf("invalid hash key length: %d", keyLen)
	}
	if len(record.Salt) == 0 {
		return false, oops.Code(CodeInvalidHash).Errorf("missing salt")
	}

	computed := argon2.IDKey([]byte(password), record.Salt, cost.Time, cost.MemoryKiB, cost.Threads, uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, record.Digest) == 1, nil
}

// NeedsRehash reports whether record differs from the current policy.
func (h *Hasher) NeedsRehash(record HashRecord) bool {
	if record.Algorithm != h.policy.Algorithm {
		return true
	}
	if record.Algorithm == AlgorithmBcrypt {
		return record.Cost.Rounds != h.policy.BcryptCost
	}
	return record.Version != argon2.Version ||
		record.Cost.Time != h.policy.Time ||
		record.Cost.MemoryKiB != h.policy.MemoryKiB ||
		record.Cost.Threads != h.policy.Threads
}

// DummyRecord returns a record that never matches any password but costs
// the same to verify as a real one under the current policy. Login checks
// it for unknown emails so response time does not reveal whether an
// account exists.
func (h *Hasher) DummyRecord() HashRecord {
	return dummyRecordFor(h.policy)
}

func dummyRecordFor(p HashPolicy) HashRecord {
	if p.Algorithm == AlgorithmBcrypt {
		encoded := fmt.Sprintf("$2a$%02d$%s", p.BcryptCost, strings.Repeat("a", 53))
		return HashRecord{
			Algorithm: AlgorithmBcrypt,
			Cost:      HashCost{Rounds: p.BcryptCost},
			Digest:    []byte(encoded),
		}
	}
	return HashRecord{
		Algorithm: AlgorithmArgon2id,
		Version:   argon2.Version,
		Cost:      HashCost{Time: p.Time, MemoryKiB: p.MemoryKiB, Threads: p.Threads},
		Salt:      make([]byte, argon2SaltLen),
		Digest:    make([]byte, argon2KeyLen),
	}
}

func hashingFailure(stage string, err error) error {
	return oops.Code(CodeHashingFailed).
		With("stage", stage).
		Wrap(fmt.Errorf("%w: %w", ErrHashing, err))
}

// Compile-time interface check.
var _ PasswordHasher = (*Hasher)(nil)
