// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/tuanpham24/tbook-auth/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_INVALID_INPUT").Errorf("email is not valid")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("identity_id", "01J0000000000000000000000").Errorf("lookup failed")
	errutil.AssertErrorContext(t, err, "identity_id", "01J0000000000000000000000")
}

func TestAssertSentinel_WrappedSentinel(t *testing.T) {
	sentinel := errors.New("duplicate")
	err := oops.Code("AUTH_DUPLICATE_EMAIL").With("email", "a@example.com").Wrap(sentinel)
	errutil.AssertSentinel(t, err, sentinel, "AUTH_DUPLICATE_EMAIL")
}
