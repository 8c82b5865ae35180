// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

// Package auth implements DriftFile's passwordless authentication core:
// account registration keyed by email, one-time numeric codes delivered
// out-of-band, and server-side sessions exchanged for a verified code.
//
// The package owns the domain entities (Account, OneTimeCode, Session) and
// the services operating on them; persistence and delivery are reached
// through repository and sender interfaces implemented elsewhere.
package auth
