// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// One-time code configuration.
const (
	// CodeDigits is the fixed length of a one-time code.
	CodeDigits = 6

	// DefaultCodeTTL is how long an unconsumed code remains valid.
	DefaultCodeTTL = 10 * time.Minute

	// DefaultMaxVerifyAttempts caps failed submissions per code before the
	// code is invalidated.
	DefaultMaxVerifyAttempts = 5

	// DefaultResendCooldown is the minimum interval between deliveries for
	// the same account.
	DefaultResendCooldown = time.Minute
)

// codeSpace is 10^CodeDigits, the number of possible codes.
var codeSpace = big.NewInt(1_000_000)

// OneTimeCode is an ephemeral verification code bound to an account. At most
// one code is outstanding per account; issuing a new one supersedes any prior
// unconsumed code.
type OneTimeCode struct {
	AccountID  ulid.ULID
	CodeHash   string
	Attempts   int
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ConsumedAt *time.Time
}

// NewOneTimeCode creates a validated OneTimeCode instance.
func NewOneTimeCode(accountID ulid.ULID, codeHash string, expiresAt time.Time) (*OneTimeCode, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("OTP_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if codeHash == "" {
		return nil, oops.Code("OTP_INVALID_HASH").Errorf("code hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("OTP_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	return &OneTimeCode{
		AccountID: accountID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the code has expired.
func (c *OneTimeCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Consumed returns true if the code was already redeemed.
func (c *OneTimeCode) Consumed() bool {
	return c.ConsumedAt != nil
}

// GenerateCode creates a uniformly random numeric code and its hash.
// Returns (plaintext_code, sha256_hash, error). The plaintext code is
// delivered to the user; only the hash is stored.
func GenerateCode() (code, hash string, err error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", "", oops.Code("OTP_GENERATE_FAILED").
			With("operation", "crypto/rand.Int").
			Wrap(err)
	}

	code = fmt.Sprintf("%0*d", CodeDigits, n)
	hash = HashCode(code)

	return code, hash, nil
}

// HashCode computes the SHA256 hash of a one-time code.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// VerifyCodeHash checks if the plaintext code matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifyCodeHash(code, hash string) bool {
	if code == "" || hash == "" {
		return false
	}
	computed := HashCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// CodeRepository manages one-time code persistence. Implementations must
// guarantee at most one row per account so that a replace supersedes the
// prior code atomically.
type CodeRepository interface {
	// Replace stores a code for an account, superseding any existing one.
	Replace(ctx context.Context, code *OneTimeCode) error

	// GetByAccount retrieves the outstanding code for an account.
	// Returns ErrNotFound if none exists.
	GetByAccount(ctx context.Context, accountID ulid.ULID) (*OneTimeCode, error)

	// MarkConsumed records that the account's code was redeemed at the given
	// time. Returns ErrNotFound if no unconsumed code exists.
	MarkConsumed(ctx context.Context, accountID ulid.ULID, at time.Time) error

	// IncrementAttempts bumps the failed-attempt counter and returns the new
	// count.
	IncrementAttempts(ctx context.Context, accountID ulid.ULID) (int, error)

	// DeleteByAccount removes the account's code, if any.
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) error

	// DeleteExpired removes all expired codes and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
