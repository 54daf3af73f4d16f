// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gatekeeper/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/platform/validate"
	"github.com/taibuivan/gatekeeper/pkg/pagination"
	"github.com/taibuivan/gatekeeper/pkg/slice"
)

// Handler implements the HTTP layer for user management.
//
// # Security
//
// Every route requires an authenticated caller; the router mounts it behind
// middleware.RequireAuth.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the user endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listUsers)
	router.Post("/", handler.createUser)
	router.Get("/{id}", handler.getUser)
	router.Patch("/{id}", handler.updateUser)
	router.Delete("/{id}", handler.deleteUser)

	return router
}

// # Read Endpoints

/*
GET /api/v1/users.

Request:
  - query: page, limit

Response:
  - 200: pagination.Page[Profile]
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.accountService.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profiles := slice.Map(users, User.Profile)
	respond.OK(writer, pagination.NewPage(profiles, params, total))
}

/*
GET /api/v1/users/{id}.

Response:
  - 200: Profile
  - 404: ErrUserNotFound
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.accountService.GetByID(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if user == nil {
		respond.Error(writer, request, ErrUserNotFound)
		return
	}

	respond.OK(writer, user.Profile())
}

// # Write Endpoints

// createUserRequest defines the expected JSON payload for user creation.
type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullname"`
	Password string `json:"password"`
}

/*
POST /api/v1/users.

Description: Creates an account on behalf of an authenticated operator. The
password is optional; without it the account can only sign in through an
identity provider.

Response:
  - 201: Profile
  - 400: Validation failure
  - 409: ErrEmailTaken
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, MaxEmailChars).
		Email(FieldEmail, input.Email).
		Required(FieldFullName, input.FullName).
		MaxLen(FieldFullName, input.FullName, MaxFullNameChars)
	if input.Password != "" {
		validatePassword(v, input.Password)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Create(request.Context(), CreateInput{
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logActor(request, "user_created_by_operator", user.ID)
	respond.Created(writer, user.Profile())
}

// updateUserRequest defines the expected JSON payload for partial updates.
type updateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullname"`
	Password *string `json:"password"`
}

/*
PATCH /api/v1/users/{id}.

Request:
  - body: updateUserRequest (Partial JSON)

Response:
  - 200: Profile
  - 400: Validation failure
  - 404: ErrUserNotFound
  - 409: ErrEmailTaken
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	var input updateUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.OptionalEmail(FieldEmail, input.Email).
		OptionalText(FieldFullName, input.FullName, MaxFullNameChars).
		Custom(FieldEmail, input.Email == nil && input.FullName == nil && input.Password == nil, "Nothing to update")
	if input.Email != nil {
		v.MaxLen(FieldEmail, *input.Email, MaxEmailChars)
	}
	if input.Password != nil {
		validatePassword(v, *input.Password)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Update(request.Context(), UpdateInput{
		ID:       requestutil.Param(request, "id"),
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logActor(request, "user_updated_by_operator", user.ID)
	respond.OK(writer, user.Profile())
}

// deleteUserResponse is the body returned after archiving an account.
type deleteUserResponse struct {
	ID string `json:"id"`
}

/*
DELETE /api/v1/users/{id}.

Response:
  - 200: {"id": "..."}
  - 404: ErrUserNotFound
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	id, err := handler.accountService.Delete(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logActor(request, "user_deleted_by_operator", id)
	respond.OK(writer, deleteUserResponse{ID: id})
}

// # Helpers

// validatePassword applies the password length rules.
func validatePassword(v *validate.Validator, password string) {
	v.MinLen(FieldPassword, password, MinPasswordChars).
		Custom(FieldPassword, len(password) > MaxPasswordBytes, "Maximum 72 bytes")
}

// logActor records which authenticated caller changed an account.
func logActor(request *http.Request, message, targetID string) {
	actorID, _ := requestutil.RequiredUserID(request)
	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), message,
		slog.String("actor_id", actorID),
		slog.String("user_id", targetID),
	)
}
