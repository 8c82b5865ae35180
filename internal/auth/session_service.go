// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionService establishes and resolves sessions. Resolution never fails
// past this boundary: a missing, invalid, expired or revoked token degrades
// to "no account" so page-level guards redirect instead of crashing.
type SessionService struct {
	accounts AccountRepository
	sessions SessionRepository
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionService creates a new SessionService. A ttl of zero falls back to
// DefaultSessionTTL; a nil logger falls back to slog.Default.
func NewSessionService(accounts AccountRepository, sessions SessionRepository, ttl time.Duration, logger *slog.Logger) (*SessionService, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		accounts: accounts,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// Establish creates a session for a verified account and returns it together
// with the plaintext token. The token is exposed only here, for cookie
// attachment; afterwards only its hash exists.
func (s *SessionService) Establish(ctx context.Context, accountID ulid.ULID, userAgent, ipAddress string) (*Session, string, error) {
	// A session always references an existing account.
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_ESTABLISH_FAILED").
			With("operation", "get account by id").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_SESSION_ESTABLISH_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(accountID, tokenHash, userAgent, ipAddress, time.Now().Add(s.ttl))
	if err != nil {
		return nil, "", oops.Code("AUTH_SESSION_ESTABLISH_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_ESTABLISH_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// Current resolves a transport token to its account. It returns nil for a
// missing, unknown, expired or revoked token, and also degrades to nil on
// store errors after logging them; callers branch on presence.
func (s *SessionService) Current(ctx context.Context, token string) *Account {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "session resolution degraded to unauthenticated", "error", err)
		}
		return nil
	}

	if session.IsExpired() {
		return nil
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "account fetch degraded to unauthenticated",
				"error", err, "account_id", session.AccountID.String())
		}
		return nil
	}

	// Best effort; resolution succeeds regardless.
	_ = s.sessions.UpdateLastSeen(ctx, session.ID, time.Now()) //nolint:errcheck

	return account
}

// Revoke invalidates the session behind the token. Revoking a token with no
// live session is a no-op; the caller clears the transport cookie and
// redirects regardless of the outcome.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_SIGN_OUT_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_SIGN_OUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}

	return nil
}
