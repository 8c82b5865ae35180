// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import "time"

// ResendState is the result of a resend throttle check.
type ResendState struct {
	// Throttled indicates the resend must be refused.
	Throttled bool

	// RetryAfter is the time to wait before a resend will be accepted.
	RetryAfter time.Duration
}

// CheckResend evaluates whether a new delivery is allowed given when the
// outstanding code was issued. A zero lastIssued means no code is outstanding
// and the resend is never throttled.
func CheckResend(lastIssued time.Time, cooldown time.Duration) ResendState {
	if lastIssued.IsZero() || cooldown <= 0 {
		return ResendState{}
	}

	elapsed := time.Since(lastIssued)
	if elapsed >= cooldown {
		return ResendState{}
	}

	return ResendState{
		Throttled:  true,
		RetryAfter: cooldown - elapsed,
	}
}
