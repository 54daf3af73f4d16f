// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/pkg/normalize"
	"github.com/taibuivan/gatekeeper/pkg/pagination"
	"github.com/taibuivan/gatekeeper/pkg/pointer"
	"github.com/taibuivan/gatekeeper/pkg/uuid"
)

// # Service Layer

// Service is the user directory. It owns password verification, name
// normalization and the uniqueness rules for account emails.
//
// Lookups return (nil, nil) for a missing account so callers can treat absence
// as an ordinary outcome; mutations report absence as NotFound.
type Service struct {
	repository Repository
	hasher     PasswordHasher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		hasher:     hasher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// # Lookups

/*
Authenticate verifies an email and password pair.

Description: Unknown email, identity-provider-only account and wrong password
all return (nil, nil). One bcrypt comparison runs in every case, so response
time does not reveal which one happened.

Returns:
  - *User: The matching account, or nil
  - error: Storage failures only
*/
func (service *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := service.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		service.hasher.Compare("", password)
		return nil, nil
	}

	if !service.hasher.Compare(user.PasswordHash, password) {
		return nil, nil
	}

	return user, nil
}

// GetByID returns the live account with id, or (nil, nil).
func (service *Service) GetByID(ctx context.Context, id string) (*User, error) {
	if !uuid.IsValid(id) {
		return nil, nil
	}

	user, err := service.repository.FindByID(ctx, id)
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account_service_get_by_id_failed: %w", err)
	}
	return user, nil
}

// GetByEmail returns the live account with email, or (nil, nil).
func (service *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, err := service.repository.FindByEmail(ctx, normalize.Email(email))
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account_service_get_by_email_failed: %w", err)
	}
	return user, nil
}

// List returns one page of live accounts, newest first, and the total count.
func (service *Service) List(ctx context.Context, params pagination.Params) ([]User, int, error) {
	users, total, err := service.repository.List(ctx, params.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return users, total, nil
}

// # Mutations

/*
Create registers a new account.

Description: Normalizes the full name, hashes the password when one is given,
and inserts. Duplicate detection is left to the store so that two concurrent
registrations cannot both succeed.

Returns:
  - *User: The stored account
  - error: apperr.Conflict for a taken email, or storage failures
*/
func (service *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	currentTime := service.now()
	user := &User{
		ID:        uuid.New(),
		Email:     normalize.Email(input.Email),
		FullName:  normalize.Name(input.FullName),
		CreatedAt: currentTime,
		UpdatedAt: currentTime,
	}

	if input.Password != "" {
		hash, err := service.hasher.Hash(input.Password)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("account_service_hash_failed: %w", err))
		}
		user.PasswordHash = hash
	}

	if err := service.repository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	service.logger.Info("user_created",
		slog.String("user_id", user.ID),
		slog.Bool("has_password", user.HasPassword()),
	)

	return user, nil
}

/*
Update applies a partial change to a live account.

Returns:
  - *User: The updated account
  - error: apperr.NotFound for an unknown id, apperr.Conflict when the new
    email belongs to another account
*/
func (service *Service) Update(ctx context.Context, input UpdateInput) (*User, error) {
	user, err := service.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if email := normalize.Email(pointer.Fallback(input.Email, user.Email)); email != user.Email {
		owner, err := service.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != user.ID {
			return nil, ErrEmailTaken
		}
		user.Email = email
	}

	if input.FullName != nil {
		user.FullName = normalize.Name(*input.FullName)
	}

	if input.Password != nil {
		hash, err := service.hasher.Hash(*input.Password)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("account_service_hash_failed: %w", err))
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = service.now()

	if err := service.repository.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_updated", slog.String("user_id", user.ID))

	return user, nil
}

// Delete archives a live account and returns its id.
func (service *Service) Delete(ctx context.Context, id string) (string, error) {
	if !uuid.IsValid(id) {
		return "", ErrUserNotFound
	}

	if err := service.repository.SoftDelete(ctx, id); err != nil {
		return "", fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.Warn("user_deleted", slog.String("user_id", id))

	return id, nil
}
