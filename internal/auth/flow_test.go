// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/driftfile/driftfile/internal/auth"
	"github.com/driftfile/driftfile/internal/auth/mocks"
	"github.com/driftfile/driftfile/pkg/errutil"
)

// flowFixture wires a real Flow over mocked repositories so the tests cover
// the same composition the serve command builds.
type flowFixture struct {
	flow     *auth.Flow
	accounts *mocks.MockAccountRepository
	codes    *mocks.MockCodeRepository
	sessions *mocks.MockSessionRepository
	sender   *mocks.MockCodeSender
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	accounts := mocks.NewMockAccountRepository(t)
	codes := mocks.NewMockCodeRepository(t)
	sessions := mocks.NewMockSessionRepository(t)
	sender := mocks.NewMockCodeSender(t)

	registry, err := auth.NewRegistry(accounts)
	require.NoError(t, err)
	otp, err := auth.NewOTPService(codes, sender, auth.OTPConfig{})
	require.NoError(t, err)
	sessionSvc, err := auth.NewSessionService(accounts, sessions, time.Hour, nil)
	require.NoError(t, err)
	flow, err := auth.NewFlow(registry, otp, sessionSvc)
	require.NoError(t, err)

	return &flowFixture{
		flow:     flow,
		accounts: accounts,
		codes:    codes,
		sessions: sessions,
		sender:   sender,
	}
}

func TestNewFlow_NilDependencies(t *testing.T) {
	f := newFlowFixture(t)

	registry, err := auth.NewRegistry(f.accounts)
	require.NoError(t, err)
	otp, err := auth.NewOTPService(f.codes, f.sender, auth.OTPConfig{})
	require.NoError(t, err)
	sessions, err := auth.NewSessionService(f.accounts, f.sessions, 0, nil)
	require.NoError(t, err)

	_, err = auth.NewFlow(nil, otp, sessions)
	require.Error(t, err)
	_, err = auth.NewFlow(registry, nil, sessions)
	require.Error(t, err)
	_, err = auth.NewFlow(registry, otp, nil)
	require.Error(t, err)
}

func TestFlow_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and issues a code", func(t *testing.T) {
		f := newFlowFixture(t)

		f.accounts.On("GetByEmail", ctx, "ada@example.com").Return(nil, auth.ErrNotFound)
		f.accounts.On("Create", ctx, mock.AnythingOfType("*auth.Account")).Return(nil)
		f.codes.On("Replace", ctx, mock.AnythingOfType("*auth.OneTimeCode")).Return(nil)
		f.sender.On("SendCode", ctx, "ada@example.com", "Ada Lovelace", mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
			Return(nil)

		pending, err := f.flow.SignUp(ctx, "ada@example.com", "Ada Lovelace", auth.RoleStudent)
		require.NoError(t, err)
		assert.NotZero(t, pending.AccountID)
		assert.Equal(t, "ada@example.com", pending.Email)
	})

	t.Run("taken email fails before any code is issued", func(t *testing.T) {
		f := newFlowFixture(t)

		existing := &auth.Account{ID: ulid.Make(), Email: "ada@example.com"}
		f.accounts.On("GetByEmail", ctx, "ada@example.com").Return(existing, nil)

		pending, err := f.flow.SignUp(ctx, "ada@example.com", "Ada", auth.RoleStandard)
		require.Error(t, err)
		assert.Nil(t, pending)
		errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_ACCOUNT")
		f.codes.AssertNotCalled(t, "Replace")
		f.sender.AssertNotCalled(t, "SendCode")
	})

	t.Run("missing role fails validation", func(t *testing.T) {
		f := newFlowFixture(t)

		_, err := f.flow.SignUp(ctx, "ada@example.com", "Ada", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_ROLE")
	})
}

func TestFlow_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a code for an existing account", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		f.accounts.On("GetByEmail", ctx, account.Email).Return(account, nil)
		f.codes.On("Replace", ctx, mock.AnythingOfType("*auth.OneTimeCode")).Return(nil)
		f.sender.On("SendCode", ctx, account.Email, account.FullName, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
			Return(nil)

		pending, err := f.flow.SignIn(ctx, account.Email)
		require.NoError(t, err)
		assert.Equal(t, account.ID, pending.AccountID)
	})

	t.Run("unknown email fails terminally", func(t *testing.T) {
		f := newFlowFixture(t)

		f.accounts.On("GetByEmail", ctx, "nobody@example.com").Return(nil, auth.ErrNotFound)

		pending, err := f.flow.SignIn(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.Nil(t, pending)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
		f.sender.AssertNotCalled(t, "SendCode")
	})

	t.Run("malformed email fails validation", func(t *testing.T) {
		f := newFlowFixture(t)

		_, err := f.flow.SignIn(ctx, "not-an-email")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
		f.accounts.AssertNotCalled(t, "GetByEmail")
	})

	t.Run("delivery failure surfaces to the caller", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		f.accounts.On("GetByEmail", ctx, account.Email).Return(account, nil)
		f.codes.On("Replace", ctx, mock.AnythingOfType("*auth.OneTimeCode")).Return(nil)
		f.sender.On("SendCode", ctx, account.Email, account.FullName, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
			Return(assert.AnError)

		_, err := f.flow.SignIn(ctx, account.Email)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_DELIVERY_FAILED")
	})
}

func TestFlow_SubmitCode(t *testing.T) {
	ctx := context.Background()
	client := auth.Client{UserAgent: "Mozilla/5.0", IPAddress: "203.0.113.7"}

	outstanding := func(account *auth.Account, plaintext string) *auth.OneTimeCode {
		return &auth.OneTimeCode{
			AccountID: account.ID,
			CodeHash:  auth.HashCode(plaintext),
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
	}

	t.Run("lands student accounts on the student surface", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		account.Role = auth.RoleStudent
		f.codes.On("GetByAccount", ctx, account.ID).Return(outstanding(account, "123456"), nil)
		f.codes.On("MarkConsumed", ctx, account.ID, mock.AnythingOfType("time.Time")).Return(nil)
		f.accounts.On("GetByID", ctx, account.ID).Return(account, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		result, err := f.flow.SubmitCode(ctx, account.ID, "123456", client)
		require.NoError(t, err)

		assert.Equal(t, auth.RedirectStudentHome, result.Redirect)
		assert.Equal(t, account.ID, result.Account.ID)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, auth.HashSessionToken(result.Token), result.Session.TokenHash)
		assert.Equal(t, client.UserAgent, result.Session.UserAgent)
	})

	t.Run("lands standard accounts on the home surface", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		account.Role = auth.RoleStandard
		f.codes.On("GetByAccount", ctx, account.ID).Return(outstanding(account, "123456"), nil)
		f.codes.On("MarkConsumed", ctx, account.ID, mock.AnythingOfType("time.Time")).Return(nil)
		f.accounts.On("GetByID", ctx, account.ID).Return(account, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		result, err := f.flow.SubmitCode(ctx, account.ID, "123456", client)
		require.NoError(t, err)
		assert.Equal(t, auth.RedirectHome, result.Redirect)
	})

	t.Run("wrong code leaves the flow re-enterable without a session", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		f.codes.On("GetByAccount", ctx, account.ID).Return(outstanding(account, "123456"), nil)
		f.codes.On("IncrementAttempts", ctx, account.ID).Return(1, nil)

		result, err := f.flow.SubmitCode(ctx, account.ID, "999999", client)
		require.Error(t, err)
		assert.Nil(t, result)
		errutil.AssertErrorCode(t, err, "AUTH_CODE_INVALID")
		f.sessions.AssertNotCalled(t, "Create")
	})

	t.Run("consumed code cannot establish a second session", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		code := outstanding(account, "123456")
		now := time.Now()
		code.ConsumedAt = &now
		f.codes.On("GetByAccount", ctx, account.ID).Return(code, nil)

		result, err := f.flow.SubmitCode(ctx, account.ID, "123456", client)
		require.Error(t, err)
		assert.Nil(t, result)
		errutil.AssertErrorCode(t, err, "AUTH_CODE_INVALID")
		f.sessions.AssertNotCalled(t, "Create")
	})

	t.Run("session failure after verify is reported", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		f.codes.On("GetByAccount", ctx, account.ID).Return(outstanding(account, "123456"), nil)
		f.codes.On("MarkConsumed", ctx, account.ID, mock.AnythingOfType("time.Time")).Return(nil)
		f.accounts.On("GetByID", ctx, account.ID).Return(account, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(assert.AnError)

		result, err := f.flow.SubmitCode(ctx, account.ID, "123456", client)
		require.Error(t, err)
		assert.Nil(t, result)
		errutil.AssertErrorCode(t, err, "AUTH_SESSION_ESTABLISH_FAILED")
	})
}

func TestFlow_ResendCode(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		f := newFlowFixture(t)

		id := ulid.Make()
		f.accounts.On("GetByID", ctx, id).Return(nil, auth.ErrNotFound)

		err := f.flow.ResendCode(ctx, id)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
	})

	t.Run("resend without outstanding code", func(t *testing.T) {
		f := newFlowFixture(t)

		account := testAccount()
		f.accounts.On("GetByID", ctx, account.ID).Return(account, nil)
		f.codes.On("GetByAccount", ctx, account.ID).Return(nil, auth.ErrNotFound)

		err := f.flow.ResendCode(ctx, account.ID)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_NO_PENDING_CODE")
	})
}

func TestFlow_SignOutAndWhoAmI(t *testing.T) {
	ctx := context.Background()

	t.Run("sign-out revokes the session", func(t *testing.T) {
		f := newFlowFixture(t)

		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		session := &auth.Session{ID: ulid.Make(), TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}

		f.sessions.On("GetByTokenHash", ctx, hash).Return(session, nil)
		f.sessions.On("Delete", ctx, session.ID).Return(nil)

		require.NoError(t, f.flow.SignOut(ctx, token))
	})

	t.Run("who-am-i resolves nil for stale tokens", func(t *testing.T) {
		f := newFlowFixture(t)
		f.sessions.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(nil, auth.ErrNotFound)
		assert.Nil(t, f.flow.WhoAmI(ctx, "deadbeef"))
	})
}
