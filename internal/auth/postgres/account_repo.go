// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

// Package postgres implements the auth repositories on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/driftfile/driftfile/internal/auth"
)

// Querier is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account. The unique index on lower(email) is the final
// arbiter for racing creations; its violation maps to auth.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, email, full_name, role, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		account.ID.String(),
		account.Email,
		account.FullName,
		string(account.Role),
		account.AvatarURL,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_DUPLICATE").
				With("email", account.Email).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, full_name, role, avatar_url, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, full_name, role, avatar_url, created_at, updated_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr     string
		email     string
		fullName  string
		roleStr   string
		avatarURL string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&idStr, &email, &fullName, &roleStr, &avatarURL, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	role, err := auth.ParseRole(roleStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ROLE").
			With("id", idStr).
			With("role", roleStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		AvatarURL: avatarURL,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
