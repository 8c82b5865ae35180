// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/driftfile/driftfile/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("MY_CODE").Errorf("test error")
	// Should not fail
	errutil.AssertErrorCode(t, err, "MY_CODE")
}

func TestAssertErrorCode_WrappedError(t *testing.T) {
	inner := oops.Code("SESSION_NOT_FOUND").Errorf("no session")
	outer := oops.With("operation", "current").Wrap(inner)
	errutil.AssertErrorCode(t, outer, "SESSION_NOT_FOUND")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("account_id", "01ARZ3NDEKTSV4RRFFQ69G5FAV").Errorf("test error")
	// Should not fail
	errutil.AssertErrorContext(t, err, "account_id", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
}
