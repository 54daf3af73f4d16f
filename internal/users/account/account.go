// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the user directory: the User entity, its credential store,
and the service that creates, finds, updates and archives accounts.

# Architecture

  - Entities: User (stored), Profile (sanitized view for transport).
  - Repository: Postgres for production, in-memory for tests and local runs.
  - Service: password verification, normalization and uniqueness rules.

The authentication package consumes [*Service] through a narrow interface and
never reads the store directly.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/pkg/pagination"
)

// # Domain Entities

// User represents a registered account.
//
// An empty PasswordHash marks an account created through an identity provider;
// such an account can never authenticate with a password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullname"`
	PasswordHash string    `json:"-"`
	Archived     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the sanitized user: every public field, never the password hash.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullname"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile returns the sanitized view of user.
func (user User) Profile() Profile {
	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// HasPassword reports whether the account can log in with a password.
func (user User) HasPassword() bool {
	return user.PasswordHash != ""
}

// # Field Rules

// JSON field names and length limits used by request validation.
const (
	FieldEmail    = "email"
	FieldFullName = "fullname"
	FieldPassword = "password"

	MaxEmailChars    = 254
	MaxFullNameChars = 100
	MinPasswordChars = 8

	// bcrypt ignores input past 72 bytes.
	MaxPasswordBytes = 72
)

// # Inputs

// CreateInput carries the fields for a new account. An empty Password creates
// an identity-provider-only account.
type CreateInput struct {
	Email    string
	FullName string
	Password string
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	ID       string
	Email    *string
	FullName *string
	Password *string
}

// # Errors

// Messages shared by every repository implementation.
const (
	resourceUser  = "User"
	msgEmailTaken = "Email already registered"
)

// ErrEmailTaken is the Conflict returned when a live account already uses the email.
var ErrEmailTaken = apperr.Conflict(msgEmailTaken)

// ErrUserNotFound is the NotFound returned for an unknown or archived id.
var ErrUserNotFound = apperr.NotFound(resourceUser)

// # Contracts

// Repository is the credential store contract.
//
// Archived accounts are invisible to every read and write. Lookups of a missing
// account fail with a NotFound [apperr.AppError]; a duplicate live email fails
// with Conflict.
type Repository interface {
	/*
		FindByEmail returns the live account with the given email.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(ctx context.Context, email string) (*User, error)

	/*
		FindByID returns the live account with the given id.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		List returns one page of live accounts, newest first, and the total count.
	*/
	List(ctx context.Context, params pagination.Params) ([]User, int, error)

	/*
		Create inserts a new account. Uniqueness of the email among live accounts
		is enforced atomically by the store.

		Returns:
		  - error: apperr.Conflict on a duplicate email, or storage failures
	*/
	Create(ctx context.Context, user *User) error

	/*
		Update persists email, full name, password hash and updatedAt.

		Returns:
		  - error: apperr.NotFound, apperr.Conflict, or storage failures
	*/
	Update(ctx context.Context, user *User) error

	/*
		SoftDelete archives the account.

		Returns:
		  - error: apperr.NotFound if unknown or already archived
	*/
	SoftDelete(ctx context.Context, id string) error
}

// PasswordHasher hashes and verifies passwords. [sec.Hasher] implements it.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Compare(existingHash, plainTextPassword string) bool
}
