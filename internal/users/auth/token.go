// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/account"
)

// # Token Issuance Types

// TokenConfig holds the secrets and lifetimes used to sign both token kinds.
//
// Access and refresh tokens are signed with different secrets, so a refresh
// token can never pass as an access token and vice versa.
type TokenConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Bundle is returned by every successful sign-in: the sanitized user and a
// fresh token pair. ExpiresIn is the access token lifetime in whole seconds.
type Bundle struct {
	User         account.Profile `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    int64           `json:"expiresIn"`
}

// TokenCodec signs and verifies tokens. [sec.TokenCodec] implements it.
type TokenCodec interface {
	Sign(claims sec.AuthClaims, secret []byte, timeToLive time.Duration) (string, error)
	Verify(tokenString string, secret []byte) (*sec.AuthClaims, error)
}

// claimsFor builds the payload shared by both tokens of a bundle.
func claimsFor(user *account.User, use string) sec.AuthClaims {
	return sec.AuthClaims{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Use:      use,
	}
}
