// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainquest-cms/internal/model"
)

func testUser(perms ...string) *model.AuthUser {
	return &model.AuthUser{
		ID:         7,
		Email:      "editor@example.com",
		Name:       "Editor",
		AuthMethod: model.AuthMethodEmail,
		Status:     model.StatusActive,
		Role: &model.AuthRole{
			ID:          3,
			Name:        "Editor",
			Slug:        "editor",
			Permissions: perms,
			IsSystem:    true,
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	require.NoError(t, store.Save(testUser("panel.access", "content.view")))

	loaded := store.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, int64(7), loaded.ID)
	assert.Equal(t, "editor", loaded.Role.Slug)
	assert.Equal(t, []string{"panel.access", "content.view"}, loaded.Role.Permissions)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	assert.Nil(t, store.Load())
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(testUser("panel.access")))
	require.NoError(t, store.Clear())

	assert.Nil(t, store.Load())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already-empty store is not an error.
	require.NoError(t, store.Clear())
}

func TestFileStoreSelfHealsOnMalformedCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{not json`},
		{"missing role", `{"id":7,"name":"Editor"}`},
		{"role without permissions", `{"id":7,"role":{"id":3,"slug":"editor"}}`},
		{"missing id", `{"role":{"id":3,"permissions":["panel.access"]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(tc.data), 0o600))

			assert.Nil(t, store.Load())

			// The corrupted file must be gone, not merely ignored.
			_, err := os.Stat(path)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestFileStoreSaveNil(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	assert.Error(t, store.Save(nil))
}
