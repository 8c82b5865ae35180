// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultAvatarURL is assigned to accounts created without an avatar.
const DefaultAvatarURL = "/assets/images/avatar-placeholder.png"

// Full name validation constraints.
const (
	MinFullNameLength = 1
	MaxFullNameLength = 100
)

// emailRegex is a pragmatic check, not an RFC 5322 validator. The mail
// delivery attempt is the real test of an address.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Role classifies an account at creation time. It is fixed for the lifetime
// of the account and is the sole input to the post-auth landing decision.
type Role string

// The closed set of account roles.
const (
	RoleStudent  Role = "student"
	RoleStandard Role = "standard"
)

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleStandard:
		return RoleStandard, nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("role must be %q or %q", RoleStudent, RoleStandard)
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStandard
}

// Landing returns the post-auth redirect classification for the role.
// The presentation layer performs the actual navigation.
func (r Role) Landing() RedirectTarget {
	if r == RoleStudent {
		return RedirectStudentHome
	}
	return RedirectHome
}

// Account represents a registered user account. Email uniquely identifies at
// most one account; role never changes after creation.
type Account struct {
	ID        ulid.ULID
	Email     string
	FullName  string
	Role      Role
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates a validated Account instance.
func NewAccount(email, fullName string, role Role, avatarURL string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateFullName(fullName); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").
			With("role", string(role)).
			Errorf("role must be an explicit choice of %q or %q", RoleStudent, RoleStandard)
	}
	if avatarURL == "" {
		avatarURL = DefaultAvatarURL
	}

	now := time.Now()
	return &Account{
		ID:        ulid.Make(),
		Email:     email,
		FullName:  fullName,
		Role:      role,
		AvatarURL: avatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateEmail validates an email address for account use.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("email address is not valid")
	}
	return nil
}

// ValidateFullName validates a display name.
func ValidateFullName(fullName string) error {
	if len(fullName) < MinFullNameLength {
		return oops.Code("AUTH_INVALID_NAME").Errorf("full name cannot be empty")
	}
	if len(fullName) > MaxFullNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("max", MaxFullNameLength).
			Errorf("full name must be at most %d characters", MaxFullNameLength)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicate (wrapped) if another
	// account already holds the email.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
