// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gatekeeper/internal/platform/middleware"
	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/platform/validate"
	"github.com/taibuivan/gatekeeper/internal/users/account"
)

// JSON field names specific to the authentication payloads.
const (
	FieldConfirmPassword = "confirmPassword"
	FieldRefreshToken    = "refreshToken"
	FieldAccessToken     = "accessToken"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Every route is public. Credential endpoints are throttled per client through
// the optional [middleware.AttemptLimiter].
type Handler struct {
	authService *Service
	attempts    middleware.AttemptLimiter
}

// NewHandler constructs a new [Handler]. attempts may be nil to disable
// credential throttling.
func NewHandler(service *Service, attempts middleware.AttemptLimiter) *Handler {
	return &Handler{authService: service, attempts: attempts}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST   /login        : Password sign-in.
//   - POST   /register     : Creates an account and signs it in.
//   - POST   /login-google : Identity provider sign-in.
//   - POST   /refresh      : Rotates a token pair.
//   - POST   /authenticate : Checks an access token.
//   - DELETE /logout       : Stateless no-op.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(middleware.AttemptLimit(handler.attempts, "login")).Post("/login", handler.login)
	router.With(middleware.AttemptLimit(handler.attempts, "register")).Post("/register", handler.register)
	router.With(middleware.AttemptLimit(handler.attempts, "login_google")).Post("/login-google", handler.loginWithIdentityProvider)
	router.With(middleware.AttemptLimit(handler.attempts, "refresh")).Post("/refresh", handler.refresh)
	router.Post("/authenticate", handler.authenticate)
	router.Delete("/logout", handler.logout)

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"fullname"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type identityRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullname"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authenticateRequest struct {
	AccessToken string `json:"accessToken"`
}

/*
Login authenticates with email and password.

POST /api/v1/auth/login

Response:
  - 200: Bundle
  - 400: Validation failure
  - 404: ErrInvalidCredentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldEmail, input.Email).
		Email(account.FieldEmail, input.Email).
		Required(account.FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bundle, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, bundle)
}

/*
Register creates a password account and returns its first bundle.

POST /api/v1/auth/register

Response:
  - 200: Bundle
  - 400: Validation failure or ErrConfirmMismatch
  - 409: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldEmail, input.Email).
		MaxLen(account.FieldEmail, input.Email, account.MaxEmailChars).
		Email(account.FieldEmail, input.Email).
		Required(account.FieldFullName, input.FullName).
		MaxLen(account.FieldFullName, input.FullName, account.MaxFullNameChars).
		Required(account.FieldPassword, input.Password).
		MinLen(account.FieldPassword, input.Password, account.MinPasswordChars).
		Custom(account.FieldPassword, len(input.Password) > account.MaxPasswordBytes, "Maximum 72 bytes").
		Required(FieldConfirmPassword, input.ConfirmPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bundle, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:           input.Email,
		FullName:        input.FullName,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, bundle)
}

/*
LoginWithIdentityProvider signs in an identity asserted by Google.

POST /api/v1/auth/login-google

Response:
  - 200: Bundle
  - 400: Validation failure
*/
func (handler *Handler) loginWithIdentityProvider(writer http.ResponseWriter, request *http.Request) {
	var input identityRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldEmail, input.Email).
		Email(account.FieldEmail, input.Email).
		Required(account.FieldFullName, input.FullName).
		MaxLen(account.FieldFullName, input.FullName, account.MaxFullNameChars)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bundle, err := handler.authService.LoginWithIdentityProvider(request.Context(), IdentityInput{
		Email:    input.Email,
		FullName: input.FullName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, bundle)
}

/*
Refresh rotates a token pair.

POST /api/v1/auth/refresh

Response:
  - 200: Bundle
  - 404: ErrInvalidRefreshToken
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required(FieldRefreshToken, input.RefreshToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bundle, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, bundle)
}

/*
Authenticate checks an access token against the live user directory.

POST /api/v1/auth/authenticate

Response:
  - 200: true
  - 404: ErrInvalidAccessToken
*/
func (handler *Handler) authenticate(writer http.ResponseWriter, request *http.Request) {
	var input authenticateRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required(FieldAccessToken, input.AccessToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ok, err := handler.authService.AuthenticateAccessToken(request.Context(), input.AccessToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, ok)
}

// DELETE /api/v1/auth/logout. Tokens are stateless, so there is nothing to revoke.
func (handler *Handler) logout(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, true)
}
