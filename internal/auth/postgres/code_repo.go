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

// CodeRepository implements auth.CodeRepository using PostgreSQL. The
// one_time_codes table is keyed by account_id, so a replace atomically
// supersedes whatever code was outstanding.
type CodeRepository struct {
	db Querier
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(db Querier) *CodeRepository {
	return &CodeRepository{db: db}
}

// Replace stores a code for an account, superseding any existing one.
func (r *CodeRepository) Replace(ctx context.Context, code *auth.OneTimeCode) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO one_time_codes (account_id, code_hash, attempts, expires_at, created_at, consumed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			attempts = EXCLUDED.attempts,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at,
			consumed_at = EXCLUDED.consumed_at
	`,
		code.AccountID.String(),
		code.CodeHash,
		code.Attempts,
		code.ExpiresAt,
		code.CreatedAt,
		code.ConsumedAt,
	)
	if err != nil {
		return oops.Code("CODE_REPLACE_FAILED").
			With("operation", "upsert one_time_code").
			With("account_id", code.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByAccount retrieves the outstanding code for an account.
func (r *CodeRepository) GetByAccount(ctx context.Context, accountID ulid.ULID) (*auth.OneTimeCode, error) {
	row := r.db.QueryRow(ctx, `
		SELECT account_id, code_hash, attempts, expires_at, created_at, consumed_at
		FROM one_time_codes
		WHERE account_id = $1
	`, accountID.String())

	var (
		accountIDStr string
		codeHash     string
		attempts     int
		expiresAt    time.Time
		createdAt    time.Time
		consumedAt   *time.Time
	)

	err := row.Scan(&accountIDStr, &codeHash, &attempts, &expiresAt, &createdAt, &consumedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CODE_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CODE_GET_BY_ACCOUNT_FAILED").
			With("operation", "get code by account").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	parsed, err := ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.Code("CODE_INVALID_ACCOUNT_ID").
			With("operation", "parse account id").
			With("account_id", accountIDStr).
			Wrap(err)
	}

	return &auth.OneTimeCode{
		AccountID:  parsed,
		CodeHash:   codeHash,
		Attempts:   attempts,
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
		ConsumedAt: consumedAt,
	}, nil
}

// MarkConsumed records redemption of the account's unconsumed code.
func (r *CodeRepository) MarkConsumed(ctx context.Context, accountID ulid.ULID, at time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE one_time_codes SET consumed_at = $2
		WHERE account_id = $1 AND consumed_at IS NULL
	`, accountID.String(), at)
	if err != nil {
		return oops.Code("CODE_MARK_CONSUMED_FAILED").
			With("operation", "update consumed_at").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CODE_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// IncrementAttempts bumps the failed-attempt counter and returns the new count.
func (r *CodeRepository) IncrementAttempts(ctx context.Context, accountID ulid.ULID) (int, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE one_time_codes SET attempts = attempts + 1
		WHERE account_id = $1
		RETURNING attempts
	`, accountID.String())

	var attempts int
	err := row.Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code("CODE_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("CODE_INCREMENT_ATTEMPTS_FAILED").
			With("operation", "increment attempts").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return attempts, nil
}

// DeleteByAccount removes the account's code, if any.
func (r *CodeRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM one_time_codes WHERE account_id = $1
	`, accountID.String())
	if err != nil {
		return oops.Code("CODE_DELETE_FAILED").
			With("operation", "delete one_time_code").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	// No ErrNotFound if no rows deleted - that's a valid state
	return nil
}

// DeleteExpired removes all expired codes and returns the count.
func (r *CodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM one_time_codes WHERE expires_at < $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("CODE_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired one_time_codes").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.CodeRepository = (*CodeRepository)(nil)
