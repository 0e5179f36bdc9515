// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"chainquest-cms/internal/model"
)

const contentColumns = `id, type, payload, updated_by, created_at, updated_at`

func scanContent(row interface{ Scan(...any) error }) (model.Content, error) {
	var c model.Content
	err := row.Scan(&c.ID, &c.Type, &c.Payload, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetContentByType fetches the content record for a type.
func (q *Queries) GetContentByType(ctx context.Context, contentType string) (model.Content, error) {
	return scanContent(q.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE type = ?`, contentType))
}

// ListContent returns all content records.
func (q *Queries) ListContent(ctx context.Context) ([]model.Content, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, c)
	}
	return records, rows.Err()
}

// UpsertContentParams holds parameters for UpsertContent.
type UpsertContentParams struct {
	Type      string
	Payload   string
	UpdatedBy sql.NullInt64
	Now       time.Time
}

// UpsertContent inserts or replaces the single record for a content type.
func (q *Queries) UpsertContent(ctx context.Context, arg UpsertContentParams) (model.Content, error) {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO content (type, payload, updated_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(type) DO UPDATE SET payload = excluded.payload,
		 updated_by = excluded.updated_by, updated_at = excluded.updated_at`,
		arg.Type, arg.Payload, arg.UpdatedBy, arg.Now, arg.Now)
	if err != nil {
		return model.Content{}, err
	}
	return q.GetContentByType(ctx, arg.Type)
}
