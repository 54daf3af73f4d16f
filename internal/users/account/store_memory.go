// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/taibuivan/gatekeeper/pkg/pagination"
	"github.com/taibuivan/gatekeeper/pkg/slice"
)

// MemoryRepository implements [Repository] in process memory.
//
// It backs STORAGE_DRIVER=memory and the service tests. Email uniqueness is
// checked and the row written under one lock, matching the atomicity of the
// Postgres partial unique index.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

// FindByEmail returns the live account with the given email.
func (repository *MemoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	for _, user := range repository.users {
		if !user.Archived && user.Email == email {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByID returns the live account with the given id.
func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	user, found := repository.users[id]
	if !found || user.Archived {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// List returns one page of live accounts ordered like the Postgres store.
func (repository *MemoryRepository) List(_ context.Context, params pagination.Params) ([]User, int, error) {
	repository.mu.RLock()
	live := slice.Filter(slices.Collect(maps.Values(repository.users)), func(user User) bool {
		return !user.Archived
	})
	repository.mu.RUnlock()

	slices.SortFunc(live, func(a, b User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	total := len(live)
	start := min(params.Offset(), total)
	end := min(start+params.Limit, total)

	return live[start:end], total, nil
}

// Create inserts user unless a live account already uses its email.
func (repository *MemoryRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.emailTakenLocked(user.Email, user.ID) {
		return ErrEmailTaken
	}

	repository.users[user.ID] = *user
	return nil
}

// Update replaces the mutable fields of a live account.
func (repository *MemoryRepository) Update(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, found := repository.users[user.ID]
	if !found || stored.Archived {
		return ErrUserNotFound
	}

	if repository.emailTakenLocked(user.Email, user.ID) {
		return ErrEmailTaken
	}

	stored.Email = user.Email
	stored.FullName = user.FullName
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = user.UpdatedAt
	repository.users[user.ID] = stored
	return nil
}

// SoftDelete archives a live account.
func (repository *MemoryRepository) SoftDelete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, found := repository.users[id]
	if !found || stored.Archived {
		return ErrUserNotFound
	}

	stored.Archived = true
	repository.users[id] = stored
	return nil
}

// emailTakenLocked reports whether a live account other than exceptID uses email.
// Callers must hold mu.
func (repository *MemoryRepository) emailTakenLocked(email, exceptID string) bool {
	for id, user := range repository.users {
		if id != exceptID && !user.Archived && user.Email == email {
			return true
		}
	}
	return false
}
