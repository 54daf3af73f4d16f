// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements token issuance and verification: password login,
registration, identity-provider sign-in, refresh and access token checks.

Architecture:

  - Service: Orchestrates the flows over a user directory and a token codec.
  - Tokens: Stateless HS256 JWTs. Access and refresh tokens use separate secrets
    and carry a "use" claim; nothing is stored server-side.
  - Handler: JSON endpoints under /api/v1/auth.

Every rejected credential or token is reported as a NotFound-class error with a
fixed message, so callers cannot tell which check failed.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	"github.com/taibuivan/gatekeeper/internal/platform/sec"
	"github.com/taibuivan/gatekeeper/internal/users/account"
)

// # Errors

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// identity-provider-only accounts alike.
	ErrInvalidCredentials = apperr.NotFoundMessage("Incorrect email or password")

	// ErrInvalidRefreshToken is returned for any refresh token that fails
	// verification or whose user no longer exists.
	ErrInvalidRefreshToken = apperr.NotFoundMessage("Refresh token is not valid")

	// ErrInvalidAccessToken is the access token counterpart of [ErrInvalidRefreshToken].
	ErrInvalidAccessToken = apperr.NotFoundMessage("Access token is not valid")

	// ErrConfirmMismatch rejects a registration whose two passwords differ.
	ErrConfirmMismatch = apperr.ValidationError("Confirm password does not match",
		apperr.FieldError{Field: FieldConfirmPassword, Message: "Must match password"})
)

// Operation labels recorded in [metrics.AuthEvents].
const (
	operationLogin        = "login"
	operationRegister     = "register"
	operationIdentity     = "identity_login"
	operationRefresh      = "refresh"
	operationAuthenticate = "authenticate"
)

// # Contracts

// UserDirectory is the part of [account.Service] the authentication flows need.
//
// Lookups return (nil, nil) for a missing or archived account.
type UserDirectory interface {
	Authenticate(ctx context.Context, email, password string) (*account.User, error)
	GetByID(ctx context.Context, id string) (*account.User, error)
	GetByEmail(ctx context.Context, email string) (*account.User, error)
	Create(ctx context.Context, input account.CreateInput) (*account.User, error)
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Changes to token claims, secrets or
// the collapsing of failure modes must be reviewed with that in mind.
type Service struct {
	directory UserDirectory
	codec     TokenCodec
	config    TokenConfig
	logger    *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(directory UserDirectory, codec TokenCodec, config TokenConfig, logger *slog.Logger) *Service {
	return &Service{
		directory: directory,
		codec:     codec,
		config:    config,
		logger:    logger,
	}
}

// # Inputs

// LoginInput carries password credentials.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput carries a new account with its password confirmation.
type RegisterInput struct {
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
}

// IdentityInput carries the identity asserted by an external provider.
type IdentityInput struct {
	Email    string
	FullName string
}

// # Sign-in Flows

/*
Login verifies an email and password and issues a bundle.

Returns:
  - *Bundle: Fresh token pair for the account
  - error: ErrInvalidCredentials, or storage failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (bundle *Bundle, err error) {
	defer func() { recordOutcome(operationLogin, err) }()

	user, err := service.directory.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_failed: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	service.logger.Info("user_logged_in", slog.String("user_id", user.ID))

	return service.IssueBundle(user)
}

/*
Register creates a password account and signs it in.

Description: The confirmation is checked before the directory is touched.
A taken email surfaces as the directory's Conflict.

Returns:
  - *Bundle: Token pair for the new account
  - error: ErrConfirmMismatch, Conflict, or storage failures
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (bundle *Bundle, err error) {
	defer func() { recordOutcome(operationRegister, err) }()

	if input.Password != input.ConfirmPassword {
		return nil, ErrConfirmMismatch
	}

	user, err := service.directory.Create(ctx, account.CreateInput{
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.Info("user_registered", slog.String("user_id", user.ID))

	return service.IssueBundle(user)
}

/*
LoginWithIdentityProvider signs in an identity asserted by an external provider.

Description: Get-or-create by email. A created account has no password and can
only ever sign in this way. When a concurrent call wins the insert, the
account it created is read back, so repeated calls always resolve to one id.
*/
func (service *Service) LoginWithIdentityProvider(ctx context.Context, input IdentityInput) (bundle *Bundle, err error) {
	defer func() { recordOutcome(operationIdentity, err) }()

	user, err := service.directory.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_identity_lookup_failed: %w", err)
	}

	if user == nil {
		user, err = service.createIdentityAccount(ctx, input)
		if err != nil {
			return nil, err
		}
	}

	service.logger.Info("user_logged_in_with_identity_provider", slog.String("user_id", user.ID))

	return service.IssueBundle(user)
}

func (service *Service) createIdentityAccount(ctx context.Context, input IdentityInput) (*account.User, error) {
	user, err := service.directory.Create(ctx, account.CreateInput{
		Email:    input.Email,
		FullName: input.FullName,
	})
	if err == nil {
		return user, nil
	}

	if !apperr.IsConflict(err) {
		return nil, fmt.Errorf("auth_service_identity_create_failed: %w", err)
	}

	// Lost the race to a concurrent sign-in for the same email.
	user, lookupErr := service.directory.GetByEmail(ctx, input.Email)
	if lookupErr != nil {
		return nil, fmt.Errorf("auth_service_identity_reread_failed: %w", lookupErr)
	}
	if user == nil {
		return nil, fmt.Errorf("auth_service_identity_create_failed: %w", err)
	}
	return user, nil
}

// # Token Flows

/*
Refresh exchanges a refresh token for a new bundle.

Description: The user is re-read so that profile changes reach the new tokens
and archived accounts are cut off. Both tokens are rotated.

Returns:
  - *Bundle: Fresh token pair
  - error: ErrInvalidRefreshToken, or storage failures
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (bundle *Bundle, err error) {
	defer func() { recordOutcome(operationRefresh, err) }()

	claims, err := service.verify(refreshToken, service.config.RefreshSecret, sec.TokenUseRefresh)
	if err != nil {
		service.logger.Debug("refresh_token_rejected", slog.String("reason", err.Error()))
		return nil, ErrInvalidRefreshToken
	}

	user, err := service.directory.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	return service.IssueBundle(user)
}

/*
AuthenticateAccessToken reports whether an access token belongs to a live account.

Returns:
  - bool: true when the token is valid and its user exists
  - error: ErrInvalidAccessToken, or storage failures
*/
func (service *Service) AuthenticateAccessToken(ctx context.Context, accessToken string) (ok bool, err error) {
	defer func() { recordOutcome(operationAuthenticate, err) }()

	claims, err := service.VerifyAccessToken(accessToken)
	if err != nil {
		return false, err
	}

	user, err := service.directory.GetByID(ctx, claims.UserID)
	if err != nil {
		return false, fmt.Errorf("auth_service_authenticate_lookup_failed: %w", err)
	}
	if user == nil {
		return false, ErrInvalidAccessToken
	}

	return true, nil
}

// VerifyAccessToken checks an access token without touching storage.
// It backs the bearer middleware.
func (service *Service) VerifyAccessToken(accessToken string) (*sec.AuthClaims, error) {
	claims, err := service.verify(accessToken, service.config.AccessSecret, sec.TokenUseAccess)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

/*
IssueBundle signs an access and a refresh token for user.

Both tokens carry the same sanitized user fields; they differ in secret,
lifetime, "use" claim and token id.
*/
func (service *Service) IssueBundle(user *account.User) (*Bundle, error) {
	accessToken, err := service.codec.Sign(claimsFor(user, sec.TokenUseAccess), service.config.AccessSecret, service.config.AccessTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_sign_access_failed: %w", err))
	}

	refreshToken, err := service.codec.Sign(claimsFor(user, sec.TokenUseRefresh), service.config.RefreshSecret, service.config.RefreshTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_sign_refresh_failed: %w", err))
	}

	return &Bundle{
		User:         user.Profile(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(service.config.AccessTTL / time.Second),
	}, nil
}

// # Helpers

// verify checks signature, expiry and issuer, then the "use" claim.
func (service *Service) verify(token string, secret []byte, use string) (*sec.AuthClaims, error) {
	claims, err := service.codec.Verify(token, secret)
	if err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, fmt.Errorf("%w: token use %q, want %q", sec.ErrInvalidToken, claims.Use, use)
	}
	return claims, nil
}

// recordOutcome maps the result of an operation onto its metrics label.
func recordOutcome(operation string, err error) {
	outcome := metrics.OutcomeSuccess

	if appErr := apperr.As(err); err != nil {
		switch {
		case appErr == nil || appErr.Code == apperr.CodeInternal:
			outcome = metrics.OutcomeError
		case appErr.Code == apperr.CodeNotFound:
			outcome = metrics.OutcomeRejected
		case appErr.Code == apperr.CodeConflict:
			outcome = metrics.OutcomeConflict
		case appErr.Code == apperr.CodeValidation:
			outcome = metrics.OutcomeInvalid
		default:
			outcome = metrics.OutcomeError
		}
	}

	metrics.RecordAuthEvent(operation, outcome)
}
