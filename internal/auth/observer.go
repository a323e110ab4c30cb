// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import "time"

// Outcome label recorded for operations that succeed.
const OutcomeSuccess = "success"

// Observer receives operation and hashing measurements.
type Observer interface {
	// ObserveOperation records a completed service operation. outcome is
	// OutcomeSuccess or the error Kind.
	ObserveOperation(operation, outcome string, elapsed time.Duration)

	// ObserveHash records one hash or verify call.
	ObserveHash(operation, algorithm string, elapsed time.Duration)

	// ObservePoolWait records how long a hashing call queued for a slot.
	ObservePoolWait(elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration) {}
func (nopObserver) ObserveHash(string, string, time.Duration)      {}
func (nopObserver) ObservePoolWait(time.Duration)                  {}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return string(KindOf(err))
}
