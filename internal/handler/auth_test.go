// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/store"
)

func newAuthHandler(e *testEnv) *AuthHandler {
	return NewAuthHandler(e.db, e.sm, e.events, nil, nil)
}

func TestLoginSuccess(t *testing.T) {
	e := newTestEnv(t)
	role := e.createRole(t, "Editor", "editor", adminPerms())
	user := e.createUser(t, "login@example.com", "correct horse battery", role.ID)
	h := newAuthHandler(e)

	r := e.jsonRequest(t, http.MethodPost, "/auth/login",
		`{"email":"login@example.com","password":"correct horse battery"}`)
	rec := httptest.NewRecorder()
	h.Login(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool            `json:"success"`
		User    *model.AuthUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.NotNil(t, body.User)
	assert.Equal(t, user.ID, body.User.ID)
	assert.Equal(t, "editor", body.User.Role.Slug)

	// The session must now carry the user id.
	assert.Equal(t, user.ID, e.sm.GetInt64(r.Context(), middleware.SessionKeyUserID))

	// Login stamps last_login_at.
	got, err := e.queries.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.LastLoginAt.Valid)
}

func TestLoginUniformFailureResponse(t *testing.T) {
	e := newTestEnv(t)
	role := e.createRole(t, "Editor", "editor", nil)
	e.createUser(t, "known@example.com", "right password", role.ID)
	h := newAuthHandler(e)

	cases := []struct {
		name string
		body string
	}{
		{"unknown email", `{"email":"nobody@example.com","password":"whatever"}`},
		{"wrong password", `{"email":"known@example.com","password":"wrong"}`},
	}

	var messages []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, e.jsonRequest(t, http.MethodPost, "/auth/login", tc.body))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			messages = append(messages, body.Error)
		})
	}

	// Both failure modes must produce the same message so the response
	// does not reveal whether the account exists.
	require.Len(t, messages, 2)
	assert.Equal(t, messages[0], messages[1])
}

func TestLoginInactiveAccount(t *testing.T) {
	e := newTestEnv(t)
	role := e.createRole(t, "Editor", "editor", nil)
	user := e.createUser(t, "inactive@example.com", "some password", role.ID)

	require.NoError(t, e.queries.UpdateUser(context.Background(), store.UpdateUserParams{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		AuthMethod: user.AuthMethod,
		Status:     model.StatusInactive,
		RoleID:     user.RoleID,
		UpdatedAt:  time.Now(),
	}))

	h := newAuthHandler(e)
	rec := httptest.NewRecorder()
	h.Login(rec, e.jsonRequest(t, http.MethodPost, "/auth/login",
		`{"email":"inactive@example.com","password":"some password"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginMissingCredentials(t *testing.T) {
	e := newTestEnv(t)
	h := newAuthHandler(e)

	rec := httptest.NewRecorder()
	h.Login(rec, e.jsonRequest(t, http.MethodPost, "/auth/login", `{"email":"","password":""}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeRequiresAuthentication(t *testing.T) {
	e := newTestEnv(t)
	h := newAuthHandler(e)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsSessionUser(t *testing.T) {
	e := newTestEnv(t)
	role := e.createRole(t, "Editor", "editor", adminPerms())
	user := e.createUser(t, "me@example.com", "some password", role.ID)
	h := newAuthHandler(e)

	r := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), user, role)
	rec := httptest.NewRecorder()
	h.Me(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User *model.AuthUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.User)
	assert.Equal(t, user.ID, body.User.ID)
	require.NotNil(t, body.User.Role)
	assert.ElementsMatch(t, adminPerms(), body.User.Role.Permissions)
}

func TestLogoutDestroysSession(t *testing.T) {
	e := newTestEnv(t)
	role := e.createRole(t, "Editor", "editor", adminPerms())
	user := e.createUser(t, "out@example.com", "some password", role.ID)
	h := newAuthHandler(e)

	r := e.jsonRequest(t, http.MethodPost, "/auth/logout", "")
	e.sm.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, e.sm.GetInt64(r.Context(), middleware.SessionKeyUserID))
}
