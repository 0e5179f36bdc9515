// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"chainquest-cms/internal/model"
)

const themeColumns = `id, name, slug, colors, is_active, created_at, updated_at`

func scanTheme(row interface{ Scan(...any) error }) (model.ThemePreset, error) {
	var t model.ThemePreset
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Colors, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateThemePresetParams holds parameters for CreateThemePreset.
type CreateThemePresetParams struct {
	Name      string
	Slug      string
	Colors    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateThemePreset inserts a new theme preset and returns the created record.
func (q *Queries) CreateThemePreset(ctx context.Context, arg CreateThemePresetParams) (model.ThemePreset, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO theme_presets (name, slug, colors, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		arg.Name, arg.Slug, arg.Colors, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.ThemePreset{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ThemePreset{}, err
	}
	return q.GetThemePresetByID(ctx, id)
}

// GetThemePresetByID fetches a theme preset by id.
func (q *Queries) GetThemePresetByID(ctx context.Context, id int64) (model.ThemePreset, error) {
	return scanTheme(q.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM theme_presets WHERE id = ?`, id))
}

// GetActiveThemePreset fetches the currently active preset.
func (q *Queries) GetActiveThemePreset(ctx context.Context) (model.ThemePreset, error) {
	return scanTheme(q.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM theme_presets WHERE is_active = 1`))
}

// ListThemePresets returns all theme presets ordered by name.
func (q *Queries) ListThemePresets(ctx context.Context) ([]model.ThemePreset, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+themeColumns+` FROM theme_presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []model.ThemePreset
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, t)
	}
	return presets, rows.Err()
}

// UpdateThemePresetParams holds parameters for UpdateThemePreset.
type UpdateThemePresetParams struct {
	ID        int64
	Name      string
	Slug      string
	Colors    string
	UpdatedAt time.Time
}

// UpdateThemePreset updates a preset's name, slug and colors.
func (q *Queries) UpdateThemePreset(ctx context.Context, arg UpdateThemePresetParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE theme_presets SET name = ?, slug = ?, colors = ?, updated_at = ? WHERE id = ?`,
		arg.Name, arg.Slug, arg.Colors, arg.UpdatedAt, arg.ID)
	return err
}

// ActivateThemePreset marks one preset active and deactivates the rest.
// Exactly one preset is active afterwards.
func (q *Queries) ActivateThemePreset(ctx context.Context, id int64, updatedAt time.Time) error {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE theme_presets SET is_active = 0, updated_at = ? WHERE is_active = 1`, updatedAt); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE theme_presets SET is_active = 1, updated_at = ? WHERE id = ?`, updatedAt, id)
	return err
}

// DeleteThemePreset removes a theme preset.
func (q *Queries) DeleteThemePreset(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM theme_presets WHERE id = ?`, id)
	return err
}
