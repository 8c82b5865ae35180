// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Registry enforces one account per email and attaches role metadata at
// creation. Lookups always go to the store; nothing is cached across requests.
type Registry struct {
	accounts AccountRepository
}

// NewRegistry creates a new Registry.
func NewRegistry(accounts AccountRepository) (*Registry, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	return &Registry{accounts: accounts}, nil
}

// FindByEmail looks up an account by email. Pure lookup, no side effects.
// Returns ErrNotFound (wrapped) when no account holds the email.
func (r *Registry) FindByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := r.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err //nolint:wrapcheck // repos wrap with context already
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return account, nil
}

// FindByID looks up an account by its ID.
func (r *Registry) FindByID(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := r.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err //nolint:wrapcheck // repos wrap with context already
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get account by id").
			Wrap(err)
	}
	return account, nil
}

// Create registers a new account after checking the email is free. The check
// and the insert are not atomic; when two creations race, the store's unique
// index decides and the loser surfaces AUTH_DUPLICATE_ACCOUNT all the same.
func (r *Registry) Create(ctx context.Context, email, fullName string, role Role, avatarURL string) (*Account, error) {
	account, err := NewAccount(email, fullName, role, avatarURL)
	if err != nil {
		return nil, err
	}

	_, err = r.accounts.GetByEmail(ctx, email)
	if err == nil {
		return nil, oops.Code("AUTH_DUPLICATE_ACCOUNT").
			With("email", email).
			Errorf("an account already exists for this email")
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	if err := r.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Fresh error rather than a wrap: oops resolves Code() from the
			// deepest coded error, and the store's code must not leak out.
			return nil, oops.Code("AUTH_DUPLICATE_ACCOUNT").
				With("email", email).
				Errorf("an account already exists for this email")
		}
		return nil, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}

	return account, nil
}
