// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
	"chainquest-cms/internal/store"
	"chainquest-cms/internal/testutil"
)

// newTestSessionManager returns a session manager backed by the default
// in-memory store.
func newTestSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	return scs.New()
}

func seedUserAndRole(t *testing.T, db *sql.DB) model.User {
	t.Helper()
	q := store.New(db)
	ctx := context.Background()

	role, err := q.CreateRole(ctx, store.CreateRoleParams{
		Name: "Editor", Slug: "editor",
		Permissions: model.PermissionsToJSON([]string{rbac.PermPanelAccess, rbac.PermContentView}),
		CreatedAt:   time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Email:      sql.NullString{String: "mw@example.com", Valid: true},
		Name:       "Middleware Test",
		AuthMethod: model.AuthMethodEmail,
		Status:     model.StatusActive,
		RoleID:     role.ID,
		CreatedAt:  time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	return user
}

func TestLoadUserFromIdentityHeader(t *testing.T) {
	db := testutil.TestDB(t)
	user := seedUserAndRole(t, db)
	sm := newTestSessionManager(t)

	var got *model.AuthUser
	handler := LoadUser(sm, db, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUser(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set(IdentityHeader, strconv.FormatInt(user.ID, 10))
	ctx, err := sm.Load(r.Context(), "")
	require.NoError(t, err)
	handler.ServeHTTP(httptest.NewRecorder(), r.WithContext(ctx))

	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "editor", got.Role.Slug)
	assert.Contains(t, got.Role.Permissions, rbac.PermPanelAccess)
}

func TestLoadUserIgnoresHeaderWhenUntrusted(t *testing.T) {
	db := testutil.TestDB(t)
	seedUserAndRole(t, db)
	sm := newTestSessionManager(t)

	var got *model.AuthUser
	handler := LoadUser(sm, db, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUser(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set(IdentityHeader, "1")
	ctx, err := sm.Load(r.Context(), "")
	require.NoError(t, err)
	handler.ServeHTTP(httptest.NewRecorder(), r.WithContext(ctx))

	assert.Nil(t, got)
}

func TestLoadUserUnknownIDContinuesAnonymous(t *testing.T) {
	db := testutil.TestDB(t)
	sm := newTestSessionManager(t)

	var got *model.AuthUser
	handler := LoadUser(sm, db, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUser(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set(IdentityHeader, "9999")
	ctx, err := sm.Load(r.Context(), "")
	require.NoError(t, err)
	handler.ServeHTTP(httptest.NewRecorder(), r.WithContext(ctx))

	assert.Nil(t, got)
}
