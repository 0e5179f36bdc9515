// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"chainquest-cms/internal/model"
)

const userColumns = `id, email, name, wallet_address, auth_method, status, password_hash, role_id, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.WalletAddress, &u.AuthMethod,
		&u.Status, &u.PasswordHash, &u.RoleID, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Email         sql.NullString
	Name          string
	WalletAddress sql.NullString
	AuthMethod    string
	Status        string
	PasswordHash  sql.NullString
	RoleID        int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateUser inserts a new user and returns the created record.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, name, wallet_address, auth_method, status, password_hash, role_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Email, arg.Name, arg.WalletAddress, arg.AuthMethod, arg.Status,
		arg.PasswordHash, arg.RoleID, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID fetches a user by id.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail fetches a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// GetUserByWallet fetches a user by wallet address.
func (q *Queries) GetUserByWallet(ctx context.Context, wallet string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE wallet_address = ?`, wallet))
}

// ListUsersParams holds pagination parameters for ListUsers.
type ListUsersParams struct {
	Limit  int64
	Offset int64
}

// ListUsers returns users ordered by creation time.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// CountUsersByRole returns the number of users assigned to a role.
func (q *Queries) CountUsersByRole(ctx context.Context, roleID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role_id = ?`, roleID).Scan(&n)
	return n, err
}

// UpdateUserParams holds parameters for UpdateUser.
type UpdateUserParams struct {
	ID            int64
	Email         sql.NullString
	Name          string
	WalletAddress sql.NullString
	AuthMethod    string
	Status        string
	RoleID        int64
	UpdatedAt     time.Time
}

// UpdateUser updates a user's profile, role, and status.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, wallet_address = ?, auth_method = ?,
		 status = ?, role_id = ?, updated_at = ? WHERE id = ?`,
		arg.Email, arg.Name, arg.WalletAddress, arg.AuthMethod,
		arg.Status, arg.RoleID, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, updatedAt, id)
	return err
}

// UpdateUserLastLogin stamps the user's last login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, at, at, id)
	return err
}

// ReassignUsersRole moves every user from one role to another. Used when
// deleting a role that still has assigned users.
func (q *Queries) ReassignUsersRole(ctx context.Context, fromRoleID, toRoleID int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET role_id = ?, updated_at = ? WHERE role_id = ?`,
		toRoleID, updatedAt, fromRoleID)
	return err
}

// DeleteUser removes a user.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
