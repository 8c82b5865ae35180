// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when a uniqueness constraint is
// violated. The database index, not the service-level lookup, is the final
// arbiter when two creations race for the same email.
var ErrDuplicate = errors.New("duplicate")
