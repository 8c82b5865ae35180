// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/driftfile/driftfile/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db Querier
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO web_sessions (id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		session.ID.String(),
		session.AccountID.String(),
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
		session.LastSeenAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert web_session").
			With("account_id", session.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at
		FROM web_sessions
		WHERE token_hash = $1
	`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// GetByAccount retrieves all sessions for an account, newest first.
func (r *SessionRepository) GetByAccount(ctx context.Context, accountID ulid.ULID) ([]*auth.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at
		FROM web_sessions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID.String())
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_ACCOUNT_FAILED").
			With("operation", "get sessions by account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var sessions []*auth.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, oops.Code("SESSION_SCAN_FAILED").
				With("operation", "scan session row").
				Wrap(err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_ROWS_ERROR").
			With("operation", "iterate session rows").
			Wrap(err)
	}

	return sessions, nil
}

// UpdateLastSeen updates the LastSeenAt timestamp for a session.
func (r *SessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE web_sessions SET last_seen_at = $2
		WHERE id = $1
	`, id.String(), lastSeen)
	if err != nil {
		return oops.Code("SESSION_UPDATE_LAST_SEEN_FAILED").
			With("operation", "update last_seen_at").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM web_sessions WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete web_session").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes all sessions for an account.
func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM web_sessions WHERE account_id = $1
	`, accountID.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "delete web_sessions by account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	// No ErrNotFound if no rows deleted - that's a valid state
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM web_sessions WHERE expires_at < $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired web_sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session.
// Callers are responsible for handling pgx.ErrNoRows.
func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		idStr        string
		accountIDStr string
		tokenHash    string
		userAgent    string
		ipAddress    string
		expiresAt    time.Time
		createdAt    time.Time
		lastSeenAt   time.Time
	)

	err := row.Scan(&idStr, &accountIDStr, &tokenHash, &userAgent, &ipAddress, &expiresAt, &createdAt, &lastSeenAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan web_session").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}

	accountID, err := ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT_ID").
			With("operation", "parse account id").
			With("account_id", accountIDStr).
			Wrap(err)
	}

	return &auth.Session{
		ID:         id,
		AccountID:  accountID,
		TokenHash:  tokenHash,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
		LastSeenAt: lastSeenAt,
	}, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
