// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/auth"
	"chainquest-cms/internal/middleware"
	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
	"chainquest-cms/internal/service"
	"chainquest-cms/internal/store"
	"chainquest-cms/internal/testutil"
)

type testEnv struct {
	db      *sql.DB
	queries *store.Queries
	events  *service.EventService
	sm      *scs.SessionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)
	return &testEnv{
		db:      db,
		queries: store.New(db),
		events:  service.NewEventService(db),
		sm:      scs.New(),
	}
}

func (e *testEnv) createRole(t *testing.T, name, slug string, perms []string) model.Role {
	t.Helper()
	role, err := e.queries.CreateRole(context.Background(), store.CreateRoleParams{
		Name: name, Slug: slug,
		Permissions: model.PermissionsToJSON(perms),
		CreatedAt:   time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	return role
}

func (e *testEnv) createUser(t *testing.T, email, password string, roleID int64) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := e.queries.CreateUser(context.Background(), store.CreateUserParams{
		Email:        sql.NullString{String: email, Valid: true},
		Name:         "Test User",
		AuthMethod:   model.AuthMethodEmail,
		Status:       model.StatusActive,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		RoleID:       roleID,
		CreatedAt:    time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	return user
}

// jsonRequest builds a request with a JSON body and a live session context.
func (e *testEnv) jsonRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	ctx, err := e.sm.Load(r.Context(), "")
	require.NoError(t, err)
	return r.WithContext(ctx)
}

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// asUser places an authenticated user projection into the request context,
// the way the session middleware would.
func asUser(r *http.Request, u model.User, role model.Role) *http.Request {
	au := model.NewAuthUser(u, role)
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, au))
}

func adminPerms() []string {
	return []string{
		rbac.PermPanelAccess,
		rbac.PermUsersView, rbac.PermUsersEdit,
		rbac.PermContentView, rbac.PermContentEdit,
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
