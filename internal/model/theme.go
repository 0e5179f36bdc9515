// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// ThemePreset represents a named color preset for the landing page.
// Exactly one preset is active at a time.
type ThemePreset struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Colors    string    `json:"-"` // JSON map stored as string
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetColors parses the JSON colors map.
func (t *ThemePreset) GetColors() map[string]string {
	colors := make(map[string]string)
	if t.Colors == "" {
		return colors
	}
	_ = json.Unmarshal([]byte(t.Colors), &colors)
	return colors
}

// ColorsToJSON converts a colors map to a JSON string.
func ColorsToJSON(colors map[string]string) string {
	if len(colors) == 0 {
		return "{}"
	}
	data, _ := json.Marshal(colors)
	return string(data)
}
