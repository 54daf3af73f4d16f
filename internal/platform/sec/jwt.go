// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, JWT signing)
// from the domain logic. The authentication service receives a [*TokenCodec] and a
// [*Hasher] through its constructor and never touches the underlying libraries.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/gatekeeper/pkg/uuid"
)

// Token use markers stored in the "use" claim.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// ErrInvalidToken is returned by [TokenCodec.Verify] for every rejected token:
// bad signature, malformed input, expiry, or a foreign issuer.
var ErrInvalidToken = errors.New("sec: invalid token")

// AuthClaims represents the payload embedded inside an access or refresh token.
//
// # Why custom claims?
//
// The sanitized user fields travel with the token, so the HTTP middleware can
// reconstruct the caller identity without a storage round trip.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string `json:"uid"`
	Email    string `json:"eml"`
	FullName string `json:"fnm"`
	Use      string `json:"use"`
}

// TokenCodec signs and verifies HS256 tokens.
//
// The secret is passed per call: access and refresh tokens are signed with
// different keys by the same codec.
type TokenCodec struct {
	issuer string
	now    func() time.Time
}

// CodecOption customizes a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for iat/exp and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) {
		codec.now = now
	}
}

// NewTokenCodec creates a codec that stamps and requires the given issuer.
func NewTokenCodec(issuer string, opts ...CodecOption) *TokenCodec {
	codec := &TokenCodec{issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(codec)
	}
	return codec
}

// Sign stamps the registered claims (sub, iss, iat, exp, jti) onto a copy of
// claims and returns the compact token string.
func (codec *TokenCodec) Sign(claims AuthClaims, secret []byte, timeToLive time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("sec: empty signing secret")
	}

	currentTime := codec.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New(),
		Subject:   claims.UserID,
		Issuer:    codec.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature, algorithm, issuer and expiry of tokenString.
//
// All failures are reported as [ErrInvalidToken] with the library error wrapped
// for logging.
func (codec *TokenCodec) Verify(tokenString string, secret []byte) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(codec.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
