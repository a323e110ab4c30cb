// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported hash algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// HashCost holds the work factors of a hash.
// Argon2id uses Time, MemoryKiB and Threads; bcrypt uses Rounds.
type HashCost struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	Rounds    int
}

// HashRecord is a stored password hash: algorithm tag, cost, salt and digest.
// For bcrypt the salt is embedded in the digest, which holds the full
// modular-crypt string.
type HashRecord struct {
	Algorithm string
	Version   int
	Cost      HashCost
	Salt      []byte
	Digest    []byte
}

// IsZero reports whether r holds no hash.
func (r HashRecord) IsZero() bool {
	return r.Algorithm == "" && len(r.Digest) == 0
}

// Encode renders r in its storage form.
// argon2id: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<digest>
// bcrypt: the modular-crypt string, e.g. $2a$10$...
func (r HashRecord) Encode() string {
	switch r.Algorithm {
	case AlgorithmArgon2id:
		return fmt.Sprintf(
			"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			r.Version,
			r.Cost.MemoryKiB,
			r.Cost.Time,
			r.Cost.Threads,
			base64.RawStdEncoding.EncodeToString(r.Salt),
			base64.RawStdEncoding.EncodeToString(r.Digest),
		)
	case AlgorithmBcrypt:
		return string(r.Digest)
	default:
		return ""
	}
}

// LogValue keeps salt and digest out of logs.
func (r HashRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("algorithm", r.Algorithm),
		slog.Any("cost", r.Cost),
	)
}

// ParseHashRecord decodes a stored hash string.
func ParseHashRecord(encoded string) (HashRecord, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return parseArgon2id(encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		cost, err := bcrypt.Cost([]byte(encoded))
		if err != nil {
			return HashRecord{}, oops.Code(CodeInvalidHash).Wrap(err)
		}
		return HashRecord{
			Algorithm: AlgorithmBcrypt,
			Cost:      HashCost{Rounds: cost},
			Digest:    []byte(encoded),
		}, nil
	default:
		parts := strings.SplitN(encoded, "$", 3)
		if len(parts) == 3 && parts[0] == "" {
			return HashRecord{}, oops.Code(CodeInvalidHash).Errorf("unsupported hash algorithm: %s", parts[1])
		}
		return HashRecord{}, oops.Code(CodeInvalidHash).Errorf("invalid hash format")
	}
}

func parseArgon2id(encoded string) (HashRecord, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return HashRecord{}, oops.Code(CodeInvalidHash).Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HashRecord{}, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if version != argon2.Version {
		return HashRecord{}, oops.Code(CodeInvalidHash).Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return HashRecord{}, oops.Code(CodeInvalidHash).Wrap(err)
	}

	// Validate threads fits in uint8 to prevent silent truncation
	if threads == 0 || threads > 255 {
		return HashRecord{}, oops.Code(CodeInvalidHash).Errorf("threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return HashRecord{}, oops.Code(CodeInvalidHash).Wrap(err)
	}

	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return HashRecord{}, oops.Code(CodeInvalidHash).Wrap(err)
	}

	return HashRecord{
		Algorithm: AlgorithmArgon2id,
		Version:   version,
		Cost:      HashCost{Time: time, MemoryKiB: memory, Threads: uint8(threads)},
		Salt:      salt,
		Digest:    digest,
	}, nil
}
