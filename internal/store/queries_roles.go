// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"chainquest-cms/internal/model"
)

const roleColumns = `id, name, slug, description, permissions, is_system, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (model.Role, error) {
	var r model.Role
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.Description, &r.Permissions,
		&r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// CreateRoleParams holds parameters for CreateRole.
type CreateRoleParams struct {
	Name        string
	Slug        string
	Description string
	Permissions string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRole inserts a new role and returns the created record.
func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (model.Role, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO roles (name, slug, description, permissions, is_system, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Slug, arg.Description, arg.Permissions, arg.IsSystem,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	return q.GetRoleByID(ctx, id)
}

// GetRoleByID fetches a role by id.
func (q *Queries) GetRoleByID(ctx context.Context, id int64) (model.Role, error) {
	return scanRole(q.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = ?`, id))
}

// GetRoleBySlug fetches a role by slug.
func (q *Queries) GetRoleBySlug(ctx context.Context, slug string) (model.Role, error) {
	return scanRole(q.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE slug = ?`, slug))
}

// ListRoles returns all roles ordered by name.
func (q *Queries) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// UpdateRoleParams holds parameters for UpdateRole.
type UpdateRoleParams struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Permissions string
	UpdatedAt   time.Time
}

// UpdateRole updates a role's name, slug, description and permission set.
func (q *Queries) UpdateRole(ctx context.Context, arg UpdateRoleParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE roles SET name = ?, slug = ?, description = ?, permissions = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Name, arg.Slug, arg.Description, arg.Permissions, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateRolePermissions replaces only a role's permission set. System
// roles allow no other edit.
func (q *Queries) UpdateRolePermissions(ctx context.Context, id int64, permissions string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE roles SET permissions = ?, updated_at = ? WHERE id = ?`,
		permissions, updatedAt, id)
	return err
}

// DeleteRole removes a role.
func (q *Queries) DeleteRole(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	return err
}
