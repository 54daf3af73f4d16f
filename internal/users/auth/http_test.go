// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/users/auth"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func post(t *testing.T, handler http.Handler, method, target, body string) (int, envelope) {
	t.Helper()

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder.Code, decoded
}

func TestHandler_RegisterLoginRefreshAuthenticate(t *testing.T) {
	routes := auth.NewHandler(newFixture(t).service, nil).Routes()

	status, body := post(t, routes, http.MethodPost, "/register",
		`{"email":"a@x.com","fullname":"Ada","password":"password1","confirmPassword":"password1"}`)
	require.Equal(t, http.StatusOK, status)

	var registered auth.Bundle
	require.NoError(t, json.Unmarshal(body.Data, &registered))
	assert.Equal(t, int64(3600), registered.ExpiresIn)

	status, body = post(t, routes, http.MethodPost, "/login", `{"email":"a@x.com","password":"password1"}`)
	require.Equal(t, http.StatusOK, status)

	var loggedIn auth.Bundle
	require.NoError(t, json.Unmarshal(body.Data, &loggedIn))
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	status, body = post(t, routes, http.MethodPost, "/refresh", `{"refreshToken":"`+loggedIn.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, status)

	status, body = post(t, routes, http.MethodPost, "/authenticate", `{"accessToken":"`+loggedIn.AccessToken+`"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `true`, string(body.Data))

	status, body = post(t, routes, http.MethodDelete, "/logout", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `true`, string(body.Data))
}

func TestHandler_Failures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "password1")
	routes := auth.NewHandler(f.service, nil).Routes()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"wrong_password", "/login", `{"email":"a@x.com","password":"nope-nope"}`, http.StatusNotFound, "NOT_FOUND", "Incorrect email or password"},
		{"unknown_email", "/login", `{"email":"b@x.com","password":"nope-nope"}`, http.StatusNotFound, "NOT_FOUND", "Incorrect email or password"},
		{"login_bad_email", "/login", `{"email":"nope","password":"x"}`, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed"},
		{"confirm_mismatch", "/register", `{"email":"c@x.com","fullname":"C","password":"password1","confirmPassword":"password2"}`, http.StatusBadRequest, "VALIDATION_ERROR", "Confirm password does not match"},
		{"duplicate_email", "/register", `{"email":"a@x.com","fullname":"A","password":"password1","confirmPassword":"password1"}`, http.StatusConflict, "CONFLICT", "Email already registered"},
		{"bad_refresh", "/refresh", `{"refreshToken":"garbage"}`, http.StatusNotFound, "NOT_FOUND", "Refresh token is not valid"},
		{"bad_access", "/authenticate", `{"accessToken":"garbage"}`, http.StatusNotFound, "NOT_FOUND", "Access token is not valid"},
		{"missing_refresh", "/refresh", `{}`, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed"},
		{"google_missing_name", "/login-google", `{"email":"g@x.com"}`, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, routes, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

// blockingLimiter rejects every attempt.
type blockingLimiter struct{}

func (blockingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

func TestHandler_AttemptLimit(t *testing.T) {
	routes := auth.NewHandler(newFixture(t).service, blockingLimiter{}).Routes()

	status, body := post(t, routes, http.MethodPost, "/login", `{"email":"a@x.com","password":"password1"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", body.Code)

	// Token checks and logout are not throttled.
	status, _ = post(t, routes, http.MethodDelete, "/logout", "")
	assert.Equal(t, http.StatusOK, status)
}
