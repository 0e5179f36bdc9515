// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package panel implements the admin panel client runtime: a durable
// session cache, a payload-less broadcast bus, a background synchronizer
// that keeps the cached session converged with server truth, a
// permission gate for protected views, and an unread notification
// counter. Panel clients embed the runtime instead of reimplementing
// the synchronization protocol themselves.
package panel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chainquest-cms/internal/model"
)

// SessionStore persists the cached user-plus-role session between runs.
type SessionStore interface {
	// Load returns the cached session, or nil when absent, corrupted,
	// or structurally invalid. On structural invalidity the store
	// self-clears rather than surfacing a corrupted session.
	Load() *model.AuthUser

	// Save overwrites the cache wholesale. Permission updates always
	// replace the entire role sub-object, never patch fields.
	Save(user *model.AuthUser) error

	// Clear removes the cached session.
	Clear() error
}

// FileStore is a SessionStore backed by a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore persisting to path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// sessionProbe mirrors the cached schema loosely so a structurally
// incompatible document (for example one written by a prior schema
// version whose role lacks a permissions list) can be detected before
// it is adopted.
type sessionProbe struct {
	ID   int64 `json:"id"`
	Role *struct {
		Permissions json.RawMessage `json:"permissions"`
	} `json:"role"`
}

// Load implements SessionStore.
func (s *FileStore) Load() *model.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var probe sessionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		s.clearLocked()
		return nil
	}
	if probe.ID == 0 || probe.Role == nil || probe.Role.Permissions == nil {
		s.clearLocked()
		return nil
	}

	var user model.AuthUser
	if err := json.Unmarshal(data, &user); err != nil {
		s.clearLocked()
		return nil
	}
	return &user
}

// Save implements SessionStore.
func (s *FileStore) Save(user *model.AuthUser) error {
	if user == nil {
		return errors.New("cannot save nil session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	// Write-then-rename so a crash mid-write can't leave a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing session: %w", err)
	}
	return nil
}

// Clear implements SessionStore.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *FileStore) clearLocked() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
