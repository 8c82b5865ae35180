// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CodeSender delivers a one-time code out-of-band. Implementations live in
// internal/mail.
type CodeSender interface {
	// SendCode delivers the plaintext code to the address. The expiresIn
	// hint is for the message body only.
	SendCode(ctx context.Context, email, fullName, code string, expiresIn time.Duration) error
}

// OTPConfig holds issuer/verifier tuning. Zero fields fall back to defaults.
type OTPConfig struct {
	CodeTTL           time.Duration
	ResendCooldown    time.Duration
	MaxVerifyAttempts int
}

func (c OTPConfig) withDefaults() OTPConfig {
	if c.CodeTTL <= 0 {
		c.CodeTTL = DefaultCodeTTL
	}
	if c.ResendCooldown <= 0 {
		c.ResendCooldown = DefaultResendCooldown
	}
	if c.MaxVerifyAttempts <= 0 {
		c.MaxVerifyAttempts = DefaultMaxVerifyAttempts
	}
	return c
}

// OTPService issues and verifies one-time codes. Issuing replaces any prior
// outstanding code for the account ("last issued wins"); a code verifies
// successfully at most once.
type OTPService struct {
	codes  CodeRepository
	sender CodeSender
	cfg    OTPConfig
}

// NewOTPService creates a new OTPService.
func NewOTPService(codes CodeRepository, sender CodeSender, cfg OTPConfig) (*OTPService, error) {
	if codes == nil {
		return nil, oops.Errorf("code repository is required")
	}
	if sender == nil {
		return nil, oops.Errorf("code sender is required")
	}
	return &OTPService{
		codes:  codes,
		sender: sender,
		cfg:    cfg.withDefaults(),
	}, nil
}

// Issue generates a fresh code for the account, supersedes any prior one, and
// delivers it. A delivery failure is reported, not retried; the stored code
// stays behind and simply expires.
func (s *OTPService) Issue(ctx context.Context, account *Account) error {
	if account == nil {
		return oops.Errorf("account is required")
	}

	plaintext, hash, err := GenerateCode()
	if err != nil {
		return oops.Code("OTP_ISSUE_FAILED").
			With("operation", "generate code").
			Wrap(err)
	}

	code, err := NewOneTimeCode(account.ID, hash, time.Now().Add(s.cfg.CodeTTL))
	if err != nil {
		return oops.Code("OTP_ISSUE_FAILED").
			With("operation", "build code").
			Wrap(err)
	}

	if err := s.codes.Replace(ctx, code); err != nil {
		return oops.Code("OTP_ISSUE_FAILED").
			With("operation", "store code").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	if err := s.sender.SendCode(ctx, account.Email, account.FullName, plaintext, s.cfg.CodeTTL); err != nil {
		// Fresh error, not a wrap: the mailer's own code must not shadow
		// the taxonomy code the boundary maps to a status.
		return oops.Code("AUTH_DELIVERY_FAILED").
			With("account_id", account.ID.String()).
			With("cause", err.Error()).
			Errorf("could not deliver the code")
	}

	return nil
}

// Resend re-arms the issuer for an account that is awaiting a code. The old
// code is silently superseded, not supplemented. Resends inside the cooldown
// window are refused without touching the stored code.
func (s *OTPService) Resend(ctx context.Context, account *Account) error {
	if account == nil {
		return oops.Errorf("account is required")
	}

	existing, err := s.codes.GetByAccount(ctx, account.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_NO_PENDING_CODE").
				With("account_id", account.ID.String()).
				Errorf("no code is awaiting verification for this account")
		}
		return oops.Code("OTP_ISSUE_FAILED").
			With("operation", "get code by account").
			Wrap(err)
	}

	if state := CheckResend(existing.CreatedAt, s.cfg.ResendCooldown); state.Throttled {
		return oops.Code("AUTH_RESEND_THROTTLED").
			With("retry_after", state.RetryAfter.String()).
			Errorf("a code was sent recently, wait before requesting another")
	}

	return s.Issue(ctx, account)
}

// Verify checks a submitted code against the account's outstanding code and
// marks it consumed on success. Every failure mode (no code, expired,
// mismatch, replay, too many attempts) is reported as the same
// AUTH_CODE_INVALID so callers cannot enumerate which one occurred.
func (s *OTPService) Verify(ctx context.Context, accountID ulid.ULID, submitted string) error {
	code, err := s.codes.GetByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidCodeError(accountID)
		}
		return oops.Code("OTP_VERIFY_FAILED").
			With("operation", "get code by account").
			Wrap(err)
	}

	if code.Consumed() || code.IsExpired() || code.Attempts >= s.cfg.MaxVerifyAttempts {
		return invalidCodeError(accountID)
	}

	if !VerifyCodeHash(submitted, code.CodeHash) {
		// Best effort: a lost increment only softens the attempt cap.
		_, _ = s.codes.IncrementAttempts(ctx, accountID) //nolint:errcheck
		return invalidCodeError(accountID)
	}

	// The code must not verify twice. If consumption cannot be recorded the
	// verification fails rather than leaving a replayable code behind.
	if err := s.codes.MarkConsumed(ctx, accountID, time.Now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidCodeError(accountID)
		}
		return oops.Code("OTP_VERIFY_FAILED").
			With("operation", "mark code consumed").
			Wrap(err)
	}

	return nil
}

func invalidCodeError(accountID ulid.ULID) error {
	return oops.Code("AUTH_CODE_INVALID").
		With("account_id", accountID.String()).
		Errorf("code is invalid or has expired")
}
