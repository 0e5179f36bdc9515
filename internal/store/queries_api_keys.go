// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"chainquest-cms/internal/model"
)

const apiKeyColumns = `id, name, key_hash, key_prefix, permissions, last_used_at, expires_at, is_active, created_by, created_at, updated_at`

func scanAPIKey(row interface{ Scan(...any) error }) (model.APIKey, error) {
	var k model.APIKey
	err := row.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Permissions,
		&k.LastUsedAt, &k.ExpiresAt, &k.IsActive, &k.CreatedBy, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

// CreateAPIKeyParams holds parameters for CreateAPIKey.
type CreateAPIKeyParams struct {
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	ExpiresAt   sql.NullTime
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateAPIKey inserts a new API key and returns the created record.
func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (model.APIKey, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO api_keys (name, key_hash, key_prefix, permissions, expires_at, is_active, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		arg.Name, arg.KeyHash, arg.KeyPrefix, arg.Permissions, arg.ExpiresAt,
		arg.CreatedBy, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.APIKey{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.APIKey{}, err
	}
	return q.GetAPIKeyByID(ctx, id)
}

// GetAPIKeyByID fetches an API key by id.
func (q *Queries) GetAPIKeyByID(ctx context.Context, id int64) (model.APIKey, error) {
	return scanAPIKey(q.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id))
}

// GetAPIKeyByHash fetches an API key by its SHA-256 hash.
func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (model.APIKey, error) {
	return scanAPIKey(q.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, keyHash))
}

// ListAPIKeys returns all API keys ordered by creation time.
func (q *Queries) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SetAPIKeyActive toggles an API key's active flag.
func (q *Queries) SetAPIKeyActive(ctx context.Context, id int64, active bool, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, updatedAt, id)
	return err
}

// TouchAPIKeyLastUsed stamps an API key's last-used time.
func (q *Queries) TouchAPIKeyLastUsed(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, at, id)
	return err
}

// DeactivateExpiredAPIKeys deactivates every active key past its expiry.
// Returns the number of keys deactivated.
func (q *Queries) DeactivateExpiredAPIKeys(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = 0, updated_at = ?
		 WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at < ?`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAPIKey removes an API key.
func (q *Queries) DeleteAPIKey(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	return err
}
