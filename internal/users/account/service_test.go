// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/account"
	"github.com/taibuivan/gatekeeper/pkg/pagination"
	"github.com/taibuivan/gatekeeper/pkg/pointer"
)

func newTestService(t *testing.T) *account.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(account.NewMemoryRepository(), sec.NewHasher(bcrypt.MinCost), logger)
}

func mustCreate(t *testing.T, service *account.Service, input account.CreateInput) *account.User {
	t.Helper()
	user, err := service.Create(context.Background(), input)
	require.NoError(t, err)
	return user
}

func TestService_Create(t *testing.T) {
	service := newTestService(t)

	user := mustCreate(t, service, account.CreateInput{
		Email:    "  ada@example.com ",
		FullName: "  Ada \t Lovelace ",
		Password: "correct-horse",
	})

	assert.Len(t, user.ID, 36)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.True(t, user.HasPassword())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestService_Create_DuplicateEmail(t *testing.T) {
	service := newTestService(t)
	mustCreate(t, service, account.CreateInput{Email: "a@x.com", FullName: "A", Password: "password1"})

	_, err := service.Create(context.Background(), account.CreateInput{Email: "a@x.com", FullName: "B"})

	assert.True(t, apperr.IsConflict(err))
}

/*
TestService_Create_Concurrent verifies that racing registrations of one email
produce exactly one account.
*/
func TestService_Create_Concurrent(t *testing.T) {
	service := newTestService(t)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), account.CreateInput{Email: "race@x.com", FullName: "R"})
			switch {
			case err == nil:
				successes.Add(1)
			case apperr.IsConflict(err):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(15), conflicts.Load())
}

func TestService_Authenticate(t *testing.T) {
	service := newTestService(t)
	created := mustCreate(t, service, account.CreateInput{Email: "a@x.com", FullName: "A", Password: "password1"})
	mustCreate(t, service, account.CreateInput{Email: "idp@x.com", FullName: "Idp"})

	tests := []struct {
		name     string
		email    string
		password string
		wantID   string
	}{
		{"valid", "a@x.com", "password1", created.ID},
		{"padded_email", " a@x.com ", "password1", created.ID},
		{"wrong_password", "a@x.com", "password2", ""},
		{"unknown_email", "nobody@x.com", "password1", ""},
		{"identity_provider_account", "idp@x.com", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Authenticate(context.Background(), tt.email, tt.password)
			require.NoError(t, err)

			if tt.wantID == "" {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestService_GetByID(t *testing.T) {
	service := newTestService(t)
	created := mustCreate(t, service, account.CreateInput{Email: "a@x.com", FullName: "A"})

	found, err := service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, found.Email)

	for _, id := range []string{"not-a-uuid", "0190a6f4-1c2b-7d3e-8f40-5a6b7c8d9e0f"} {
		missing, err := service.GetByID(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, missing)
	}
}

func TestService_Update(t *testing.T) {
	service := newTestService(t)
	ada := mustCreate(t, service, account.CreateInput{Email: "ada@x.com", FullName: "Ada", Password: "password1"})
	mustCreate(t, service, account.CreateInput{Email: "bob@x.com", FullName: "Bob"})

	t.Run("partial_fields", func(t *testing.T) {
		updated, err := service.Update(context.Background(), account.UpdateInput{
			ID:       ada.ID,
			FullName: pointer.To(" Ada  King "),
		})
		require.NoError(t, err)

		assert.Equal(t, "Ada King", updated.FullName)
		assert.Equal(t, "ada@x.com", updated.Email)
		assert.Equal(t, ada.PasswordHash, updated.PasswordHash)
		assert.False(t, updated.UpdatedAt.Before(ada.UpdatedAt))
	})

	t.Run("email_taken", func(t *testing.T) {
		_, err := service.Update(context.Background(), account.UpdateInput{ID: ada.ID, Email: pointer.To("bob@x.com")})
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("same_email_is_not_a_conflict", func(t *testing.T) {
		_, err := service.Update(context.Background(), account.UpdateInput{ID: ada.ID, Email: pointer.To("ada@x.com")})
		assert.NoError(t, err)
	})

	t.Run("password_change", func(t *testing.T) {
		_, err := service.Update(context.Background(), account.UpdateInput{ID: ada.ID, Password: pointer.To("new-password")})
		require.NoError(t, err)

		user, err := service.Authenticate(context.Background(), "ada@x.com", "new-password")
		require.NoError(t, err)
		assert.NotNil(t, user)
	})

	t.Run("unknown_id", func(t *testing.T) {
		_, err := service.Update(context.Background(), account.UpdateInput{ID: "nope", FullName: pointer.To("X")})
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestService_Delete(t *testing.T) {
	service := newTestService(t)
	created := mustCreate(t, service, account.CreateInput{Email: "a@x.com", FullName: "A", Password: "password1"})

	id, err := service.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	t.Run("archived_is_invisible", func(t *testing.T) {
		user, err := service.GetByID(context.Background(), created.ID)
		assert.NoError(t, err)
		assert.Nil(t, user)

		user, err = service.Authenticate(context.Background(), "a@x.com", "password1")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("second_delete_not_found", func(t *testing.T) {
		_, err := service.Delete(context.Background(), created.ID)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("email_reusable", func(t *testing.T) {
		_, err := service.Create(context.Background(), account.CreateInput{Email: "a@x.com", FullName: "Again"})
		assert.NoError(t, err)
	})
}

func TestService_List(t *testing.T) {
	service := newTestService(t)
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		mustCreate(t, service, account.CreateInput{Email: email, FullName: "User"})
	}

	users, total, err := service.List(context.Background(), pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	assert.Len(t, users, 2)

	users, _, err = service.List(context.Background(), pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
