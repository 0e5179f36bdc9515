// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
)

func requestWithUser(u *model.AuthUser) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	if u == nil {
		return r
	}
	ctx := context.WithValue(r.Context(), ContextKeyUser, u)
	return r.WithContext(ctx)
}

func panelUser(perms ...string) *model.AuthUser {
	return &model.AuthUser{
		ID:   1,
		Name: "Test",
		Role: &model.AuthRole{ID: 2, Slug: "editor", Permissions: perms},
	}
}

func serve(mw func(http.Handler) http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	called := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw(called).ServeHTTP(rec, r)
	return rec
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestRequirePanelAccessUnauthenticated(t *testing.T) {
	rec := serve(RequirePanelAccess(nil), requestWithUser(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthenticated, decodeCode(t, rec))
}

func TestRequirePanelAccessWithoutBaseline(t *testing.T) {
	rec := serve(RequirePanelAccess(nil), requestWithUser(panelUser("content.view")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeUnauthorized, decodeCode(t, rec))
}

func TestRequirePanelAccessGranted(t *testing.T) {
	rec := serve(RequirePanelAccess(nil), requestWithUser(panelUser(rbac.PermPanelAccess)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionBaselinePrecedesFineGrained(t *testing.T) {
	// Missing both panel.access and users.view: the response code must
	// say "unauthorized", not "forbidden".
	mw := RequirePermission(RequireAll, nil, rbac.PermUsersView)
	rec := serve(mw, requestWithUser(panelUser("content.view")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeUnauthorized, decodeCode(t, rec))
}

func TestRequirePermissionForbidden(t *testing.T) {
	mw := RequirePermission(RequireAll, nil, rbac.PermUsersView)
	rec := serve(mw, requestWithUser(panelUser(rbac.PermPanelAccess, "content.view")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeForbidden, decodeCode(t, rec))
}

func TestRequirePermissionAllVsAny(t *testing.T) {
	user := panelUser(rbac.PermPanelAccess, rbac.PermContentView, rbac.PermContentEdit)
	required := []string{rbac.PermContentEdit, rbac.PermContentDelete}

	all := RequirePermission(RequireAll, nil, required...)
	rec := serve(all, requestWithUser(user))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	any := RequirePermission(RequireAny, nil, required...)
	rec = serve(any, requestWithUser(user))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResolveUserIDHeaderTrust(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set(IdentityHeader, "42")

	sm := newTestSessionManager(t)
	ctx, err := sm.Load(r.Context(), "")
	require.NoError(t, err)
	r = r.WithContext(ctx)

	// Header ignored unless trust is explicitly enabled.
	assert.Zero(t, ResolveUserID(r, sm, false))
	assert.Equal(t, int64(42), ResolveUserID(r, sm, true))

	r.Header.Set(IdentityHeader, "not-a-number")
	assert.Zero(t, ResolveUserID(r, sm, true))
}
