// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/store"
	"chainquest-cms/internal/testutil"
)

func createRole(t *testing.T, q *store.Queries, name, slug string, perms []string) model.Role {
	t.Helper()
	role, err := q.CreateRole(context.Background(), store.CreateRoleParams{
		Name:        name,
		Slug:        slug,
		Permissions: model.PermissionsToJSON(perms),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)
	return role
}

func createUser(t *testing.T, q *store.Queries, email string, roleID int64) model.User {
	t.Helper()
	user, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:      sql.NullString{String: email, Valid: true},
		Name:       "Test User",
		AuthMethod: model.AuthMethodEmail,
		Status:     model.StatusActive,
		RoleID:     roleID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.NoError(t, err)
	return user
}

func TestUserCRUD(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	role := createRole(t, q, "Editor", "editor", []string{"panel.access"})
	user := createUser(t, q, "alice@example.com", role.ID)

	got, err := q.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, q.UpdateUser(ctx, store.UpdateUserParams{
		ID:         user.ID,
		Email:      user.Email,
		Name:       "Alice Renamed",
		AuthMethod: user.AuthMethod,
		Status:     model.StatusInactive,
		RoleID:     role.ID,
		UpdatedAt:  time.Now(),
	}))

	got, err = q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", got.Name)
	assert.False(t, got.IsActive())

	require.NoError(t, q.DeleteUser(ctx, user.ID))
	_, err = q.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserUniqueEmail(t *testing.T) {
	q := store.New(testutil.TestDB(t))

	role := createRole(t, q, "Editor", "editor", nil)
	createUser(t, q, "dup@example.com", role.ID)

	_, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:      sql.NullString{String: "dup@example.com", Valid: true},
		Name:       "Duplicate",
		AuthMethod: model.AuthMethodEmail,
		Status:     model.StatusActive,
		RoleID:     role.ID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.Error(t, err)
	assert.True(t, store.IsUniqueViolation(err))
}

func TestReassignUsersRole(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	from := createRole(t, q, "Old", "old", nil)
	to := createRole(t, q, "New", "new", nil)
	user := createUser(t, q, "move@example.com", from.ID)

	require.NoError(t, q.ReassignUsersRole(ctx, from.ID, to.ID, time.Now()))

	got, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, got.RoleID)

	count, err := q.CountUsersByRole(ctx, from.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateRolePermissions(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	role := createRole(t, q, "Viewer", "viewer", []string{"panel.access"})

	perms := []string{"panel.access", "content.view"}
	require.NoError(t, q.UpdateRolePermissions(ctx, role.ID, model.PermissionsToJSON(perms), time.Now()))

	got, err := q.GetRoleBySlug(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, perms, got.GetPermissions())
}

func TestContentUpsert(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	first, err := q.UpsertContent(ctx, store.UpsertContentParams{
		Type:    model.ContentTypeHero,
		Payload: `{"title":"v1"}`,
		Now:     time.Now(),
	})
	require.NoError(t, err)

	second, err := q.UpsertContent(ctx, store.UpsertContentParams{
		Type:    model.ContentTypeHero,
		Payload: `{"title":"v2"}`,
		Now:     time.Now(),
	})
	require.NoError(t, err)

	// One record per type: the second write replaces, never duplicates.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.GetPayload().Title)

	all, err := q.ListContent(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNotificationsUnreadAndBroadcast(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	role := createRole(t, q, "Editor", "editor", nil)
	user := createUser(t, q, "n@example.com", role.ID)

	_, err := q.CreateNotification(ctx, store.CreateNotificationParams{
		UserID:    sql.NullInt64{Int64: user.ID, Valid: true},
		Level:     model.NotificationLevelInfo,
		Title:     "personal",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	// Broadcast: null user_id, visible to everyone.
	broadcast, err := q.CreateNotification(ctx, store.CreateNotificationParams{
		Level:     model.NotificationLevelWarning,
		Title:     "maintenance window",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	count, err := q.CountUnreadForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	items, err := q.ListNotificationsForUser(ctx, store.ListNotificationsParams{
		UserID: user.ID, Limit: 10,
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, q.MarkNotificationRead(ctx, broadcast.ID))
	count, err = q.CountUnreadForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, q.MarkAllNotificationsRead(ctx, user.ID))
	count, err = q.CountUnreadForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeactivateExpiredAPIKeys(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	role := createRole(t, q, "Admin", "admin", nil)
	user := createUser(t, q, "k@example.com", role.ID)

	expired, err := q.CreateAPIKey(ctx, store.CreateAPIKeyParams{
		Name:        "old key",
		KeyHash:     model.HashAPIKey("old"),
		KeyPrefix:   "oldoldol",
		Permissions: `["content:read"]`,
		ExpiresAt:   sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)

	fresh, err := q.CreateAPIKey(ctx, store.CreateAPIKeyParams{
		Name:        "fresh key",
		KeyHash:     model.HashAPIKey("fresh"),
		KeyPrefix:   "freshfre",
		Permissions: `["content:read"]`,
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)

	n, err := q.DeactivateExpiredAPIKeys(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := q.GetAPIKeyByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = q.GetAPIKeyByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestActivateThemePresetExclusive(t *testing.T) {
	q := store.New(testutil.TestDB(t))
	ctx := context.Background()

	a, err := q.CreateThemePreset(ctx, store.CreateThemePresetParams{
		Name: "Neon Night", Slug: "neon-night", Colors: `{"primary":"#00ffff"}`,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	b, err := q.CreateThemePreset(ctx, store.CreateThemePresetParams{
		Name: "Solar Dawn", Slug: "solar-dawn", Colors: `{"primary":"#ff8800"}`,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, q.ActivateThemePreset(ctx, a.ID, time.Now()))
	require.NoError(t, q.ActivateThemePreset(ctx, b.ID, time.Now()))

	active, err := q.GetActiveThemePreset(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)
}

func TestSeedIdempotent(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, db))
	require.NoError(t, store.Seed(ctx, db))

	q := store.New(db)
	roles, err := q.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	super, err := q.GetRoleBySlug(ctx, model.SuperAdminSlug)
	require.NoError(t, err)
	assert.True(t, super.IsSystem)
	assert.Contains(t, super.GetPermissions(), "panel.access")

	users, err := q.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)
}
