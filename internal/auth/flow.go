// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RedirectTarget classifies where a freshly authenticated user lands. The
// presentation layer performs the actual navigation.
type RedirectTarget string

// Landing surfaces by role.
const (
	RedirectStudentHome RedirectTarget = "/student"
	RedirectHome        RedirectTarget = "/"
)

// Client carries transport facts about the browser driving a flow.
type Client struct {
	UserAgent string
	IPAddress string
}

// PendingAuth identifies a flow that is awaiting code verification.
type PendingAuth struct {
	AccountID ulid.ULID
	Email     string
}

// AuthResult is the terminal success of a flow: an established session, the
// one-shot plaintext token for cookie attachment, and the landing decision.
type AuthResult struct {
	Account  *Account
	Session  *Session
	Token    string
	Redirect RedirectTarget
}

// Flow orchestrates the two entry flows (sign-up, sign-in) over the registry,
// the OTP issuer and the session manager. Each method is an independent
// request-response transition; the flow state between requests is whatever
// the store holds (the account exists, a code is outstanding), never
// in-process memory.
type Flow struct {
	registry *Registry
	otp      *OTPService
	sessions *SessionService
}

// NewFlow creates a new Flow.
func NewFlow(registry *Registry, otp *OTPService, sessions *SessionService) (*Flow, error) {
	if registry == nil {
		return nil, oops.Errorf("registry is required")
	}
	if otp == nil {
		return nil, oops.Errorf("otp service is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session service is required")
	}
	return &Flow{registry: registry, otp: otp, sessions: sessions}, nil
}

// SignUp starts a registration flow. Role is a required, explicit choice at
// submission; it is never inferred. A taken email fails terminally with
// AUTH_DUPLICATE_ACCOUNT before any code is issued.
func (f *Flow) SignUp(ctx context.Context, email, fullName string, role Role) (*PendingAuth, error) {
	account, err := f.registry.Create(ctx, email, fullName, role, "")
	if err != nil {
		return nil, err
	}

	if err := f.otp.Issue(ctx, account); err != nil {
		return nil, err
	}

	return &PendingAuth{AccountID: account.ID, Email: account.Email}, nil
}

// SignIn starts a sign-in flow for an existing account. An unknown email
// fails terminally with AUTH_UNKNOWN_ACCOUNT before any code is issued.
func (f *Flow) SignIn(ctx context.Context, email string) (*PendingAuth, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := f.registry.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_UNKNOWN_ACCOUNT").
				With("email", email).
				Errorf("no account exists for this email")
		}
		return nil, err
	}

	if err := f.otp.Issue(ctx, account); err != nil {
		return nil, err
	}

	return &PendingAuth{AccountID: account.ID, Email: account.Email}, nil
}

// SubmitCode verifies a submitted code and, on success, establishes a session
// and decides the landing surface from the account's stored role. A failed
// verification is transient: the flow stays re-enterable for a retry or a
// resend.
func (f *Flow) SubmitCode(ctx context.Context, accountID ulid.ULID, code string, client Client) (*AuthResult, error) {
	if err := f.otp.Verify(ctx, accountID, code); err != nil {
		return nil, err
	}

	account, err := f.registry.FindByID(ctx, accountID)
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_ESTABLISH_FAILED").
			With("operation", "get account after verify").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	session, token, err := f.sessions.Establish(ctx, account.ID, client.UserAgent, client.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Account:  account,
		Session:  session,
		Token:    token,
		Redirect: account.Role.Landing(),
	}, nil
}

// ResendCode re-arms the issuer for an account awaiting verification. It is
// only meaningful while a code is outstanding and does not advance the flow.
func (f *Flow) ResendCode(ctx context.Context, accountID ulid.ULID) error {
	account, err := f.registry.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_UNKNOWN_ACCOUNT").
				With("account_id", accountID.String()).
				Errorf("no account exists for this id")
		}
		return err
	}

	return f.otp.Resend(ctx, account)
}

// SignOut revokes the session behind the token. Errors are returned for
// logging only; the boundary clears the cookie and redirects no matter what.
func (f *Flow) SignOut(ctx context.Context, token string) error {
	return f.sessions.Revoke(ctx, token)
}

// WhoAmI resolves the current account from a transport token, or nil when
// unauthenticated.
func (f *Flow) WhoAmI(ctx context.Context, token string) *Account {
	return f.sessions.Current(ctx, token)
}
