// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Input policy limits.
const (
	// MinPasswordLength is the floor for the configurable minimum.
	MinPasswordLength = 8

	// MaxPasswordBytes is the bcrypt input limit, applied to every
	// algorithm so records stay portable between them.
	MaxPasswordBytes = 72

	// MaxEmailLength is the longest address accepted (RFC 5321 path limit).
	MaxEmailLength = 254
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Policy validates registration input.
type Policy struct {
	minPasswordLength int
	blocked           []glob.Glob
}

// NewPolicy creates a Policy. minPasswordLength values below
// MinPasswordLength are raised to it. blockedDomains are glob patterns
// matched against the lower-cased email domain, with '.' as separator
// (use "**" to span labels).
func NewPolicy(minPasswordLength int, blockedDomains []string) (*Policy, error) {
	if minPasswordLength < MinPasswordLength {
		minPasswordLength = MinPasswordLength
	}
	if minPasswordLength > MaxPasswordBytes {
		return nil, oops.Code("POLICY_INVALID").
			With("min_password_length", minPasswordLength).
			Errorf("minimum password length cannot exceed %d", MaxPasswordBytes)
	}

	p := &Policy{minPasswordLength: minPasswordLength}
	for _, pattern := range blockedDomains {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, oops.Code("POLICY_INVALID").
				With("pattern", pattern).
				Wrap(err)
		}
		p.blocked = append(p.blocked, g)
	}
	return p, nil
}

// DefaultPolicy returns a Policy with the minimum password length and no
// blocked domains.
func DefaultPolicy() *Policy {
	return &Policy{minPasswordLength: MinPasswordLength}
}

// MinPasswordLength returns the effective minimum password length.
func (p *Policy) MinPasswordLength() int {
	return p.minPasswordLength
}

// ValidateEmail checks an already normalized email.
func (p *Policy) ValidateEmail(email string) error {
	if email == "" {
		return policyViolation("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return policyViolation("email", "email is too long")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return policyViolation("email", "email is not valid")
	}

	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return policyViolation("email", "email is not valid")
	}

	for _, g := range p.blocked {
		if g.Match(domain) {
			return policyViolation("email", "email domain is not allowed")
		}
	}
	return nil
}

// ValidatePassword checks the password length policy.
func (p *Policy) ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < p.minPasswordLength {
		return policyViolation("password",
			fmt.Sprintf("password must be at least %d characters", p.minPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return policyViolation("password", "password is too long")
	}
	return nil
}

func policyViolation(field, message string) error {
	return oops.Code(CodeInvalidInput).
		With("field", field).
		Wrap(&PolicyError{Field: field, Message: message})
}
