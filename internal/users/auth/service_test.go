// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/account"
	"github.com/taibuivan/gatekeeper/internal/users/auth"
)

const testIssuer = "gatekeeper"

var testTokens = auth.TokenConfig{
	AccessSecret:  []byte("access-secret"),
	AccessTTL:     time.Hour,
	RefreshSecret: []byte("refresh-secret"),
	RefreshTTL:    7 * 24 * time.Hour,
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// countingDirectory records how many times storage-backed calls were made.
type countingDirectory struct {
	auth.UserDirectory
	calls atomic.Int32
}

func (d *countingDirectory) Authenticate(ctx context.Context, email, password string) (*account.User, error) {
	d.calls.Add(1)
	return d.UserDirectory.Authenticate(ctx, email, password)
}

func (d *countingDirectory) GetByID(ctx context.Context, id string) (*account.User, error) {
	d.calls.Add(1)
	return d.UserDirectory.GetByID(ctx, id)
}

func (d *countingDirectory) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	d.calls.Add(1)
	return d.UserDirectory.GetByEmail(ctx, email)
}

func (d *countingDirectory) Create(ctx context.Context, input account.CreateInput) (*account.User, error) {
	d.calls.Add(1)
	return d.UserDirectory.Create(ctx, input)
}

type fixture struct {
	service   *auth.Service
	users     *account.Service
	directory *countingDirectory
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	users := account.NewService(account.NewMemoryRepository(), sec.NewHasher(bcrypt.MinCost), discardLogger)
	directory := &countingDirectory{UserDirectory: users}
	service := auth.NewService(directory, sec.NewTokenCodec(testIssuer), testTokens, discardLogger)

	return fixture{service: service, users: users, directory: directory}
}

func (f fixture) register(t *testing.T, email, password string) *auth.Bundle {
	t.Helper()
	bundle, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:           email,
		FullName:        "Test User",
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	return bundle
}

func TestRegisterThenLogin_SameUser(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "a@x.com", "password1")

	bundle, err := f.service.Login(context.Background(), auth.LoginInput{Email: "a@x.com", Password: "password1"})
	require.NoError(t, err)

	assert.Equal(t, registered.User.ID, bundle.User.ID)
	assert.NotEmpty(t, bundle.AccessToken)
	assert.NotEmpty(t, bundle.RefreshToken)
}

/*
TestRegister_ExampleBundle checks the shape of a registration response: no
password anywhere and expiresIn equal to the access lifetime in seconds.
*/
func TestRegister_ExampleBundle(t *testing.T) {
	f := newFixture(t)
	bundle := f.register(t, "a@x.com", "password1")

	assert.Equal(t, "a@x.com", bundle.User.Email)
	assert.Equal(t, int64(3600), bundle.ExpiresIn)

	encoded, err := json.Marshal(bundle)
	require.NoError(t, err)

	var decoded struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.ElementsMatch(t, []string{"id", "email", "fullname", "createdAt", "updatedAt"}, keys(decoded.User))
	assert.NotContains(t, string(encoded), "$2a$")
}

func TestRegister_ConfirmMismatch_NoStorageCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:           "a@x.com",
		FullName:        "A",
		Password:        "password1",
		ConfirmPassword: "password2",
	})

	assert.ErrorIs(t, err, auth.ErrConfirmMismatch)
	assert.Equal(t, apperr.CodeValidation, apperr.As(err).Code)
	assert.Zero(t, f.directory.calls.Load())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "password1")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email: "a@x.com", FullName: "B", Password: "password2", ConfirmPassword: "password2",
	})

	assert.True(t, apperr.IsConflict(err))
}

/*
TestLogin_FailuresAreIndistinguishable verifies unknown email and wrong
password produce the same error value.
*/
func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "password1")

	_, unknownErr := f.service.Login(context.Background(), auth.LoginInput{Email: "nobody@x.com", Password: "password1"})
	_, wrongErr := f.service.Login(context.Background(), auth.LoginInput{Email: "a@x.com", Password: "wrong-password"})

	assert.Same(t, auth.ErrInvalidCredentials, unknownErr)
	assert.Same(t, auth.ErrInvalidCredentials, wrongErr)
	assert.True(t, apperr.IsNotFound(unknownErr))
}

func TestRefresh_RotatesTokens(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "a@x.com", "password1")

	second, err := f.service.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestRefresh_PicksUpProfileChanges(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "a@x.com", "password1")

	name := "Renamed"
	_, err := f.users.Update(context.Background(), account.UpdateInput{ID: first.User.ID, FullName: &name})
	require.NoError(t, err)

	second, err := f.service.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", second.User.FullName)
}

/*
TestRefresh_RejectsInvalidTokens verifies every verification failure yields
the same error, whatever the cause.
*/
func TestRefresh_RejectsInvalidTokens(t *testing.T) {
	f := newFixture(t)
	bundle := f.register(t, "a@x.com", "password1")
	user, err := f.users.GetByID(context.Background(), bundle.User.ID)
	require.NoError(t, err)

	claims := sec.AuthClaims{UserID: user.ID, Email: user.Email, FullName: user.FullName, Use: sec.TokenUseRefresh}

	pastCodec := sec.NewTokenCodec(testIssuer, sec.WithClock(func() time.Time {
		return time.Now().Add(-30 * 24 * time.Hour)
	}))
	expired, err := pastCodec.Sign(claims, testTokens.RefreshSecret, time.Hour)
	require.NoError(t, err)

	foreign, err := sec.NewTokenCodec(testIssuer).Sign(claims, []byte("someone-else"), time.Hour)
	require.NoError(t, err)

	accessClaims := claims
	accessClaims.Use = sec.TokenUseAccess
	wrongUse, err := sec.NewTokenCodec(testIssuer).Sign(accessClaims, testTokens.RefreshSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"foreign_secret", foreign},
		{"access_token_as_refresh", bundle.AccessToken},
		{"wrong_use_claim", wrongUse},
		{"malformed", "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Refresh(context.Background(), tt.token)
			assert.Same(t, auth.ErrInvalidRefreshToken, err)
		})
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	bundle := f.register(t, "a@x.com", "password1")

	_, err := f.users.Delete(context.Background(), bundle.User.ID)
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), bundle.RefreshToken)
	assert.Same(t, auth.ErrInvalidRefreshToken, err)
}

func TestAuthenticateAccessToken(t *testing.T) {
	f := newFixture(t)
	bundle := f.register(t, "a@x.com", "password1")

	ok, err := f.service.AuthenticateAccessToken(context.Background(), bundle.AccessToken)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("refresh_token_rejected", func(t *testing.T) {
		ok, err := f.service.AuthenticateAccessToken(context.Background(), bundle.RefreshToken)
		assert.False(t, ok)
		assert.Same(t, auth.ErrInvalidAccessToken, err)
	})

	t.Run("fails_after_delete", func(t *testing.T) {
		_, err := f.users.Delete(context.Background(), bundle.User.ID)
		require.NoError(t, err)

		ok, err := f.service.AuthenticateAccessToken(context.Background(), bundle.AccessToken)
		assert.False(t, ok)
		assert.Same(t, auth.ErrInvalidAccessToken, err)
	})
}

func TestVerifyAccessToken_NoStorageCall(t *testing.T) {
	f := newFixture(t)
	bundle := f.register(t, "a@x.com", "password1")
	before := f.directory.calls.Load()

	claims, err := f.service.VerifyAccessToken(bundle.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, bundle.User.ID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, before, f.directory.calls.Load())
}

func TestLoginWithIdentityProvider(t *testing.T) {
	f := newFixture(t)
	input := auth.IdentityInput{Email: "g@x.com", FullName: "Google User"}

	first, err := f.service.LoginWithIdentityProvider(context.Background(), input)
	require.NoError(t, err)
	second, err := f.service.LoginWithIdentityProvider(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)

	t.Run("cannot_login_with_password", func(t *testing.T) {
		for _, password := range []string{"", "password1"} {
			_, err := f.service.Login(context.Background(), auth.LoginInput{Email: "g@x.com", Password: password})
			assert.Same(t, auth.ErrInvalidCredentials, err)
		}
	})

	t.Run("existing_password_account_is_reused", func(t *testing.T) {
		registered := f.register(t, "p@x.com", "password1")

		bundle, err := f.service.LoginWithIdentityProvider(context.Background(), auth.IdentityInput{Email: "p@x.com", FullName: "P"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, bundle.User.ID)
	})
}

func TestLoginWithIdentityProvider_Concurrent(t *testing.T) {
	f := newFixture(t)
	input := auth.IdentityInput{Email: "race@x.com", FullName: "Racer"}

	var (
		wg  sync.WaitGroup
		ids sync.Map
	)

	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle, err := f.service.LoginWithIdentityProvider(context.Background(), input)
			if assert.NoError(t, err) {
				ids.Store(i, bundle.User.ID)
			}
		}()
	}
	wg.Wait()

	distinct := map[any]struct{}{}
	ids.Range(func(_, id any) bool {
		distinct[id] = struct{}{}
		return true
	})
	assert.Len(t, distinct, 1)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	return out
}
