package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

const userColumns = "id,username,password_hash,role,name,pii,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the fields accepted at registration.
type NewUser struct {
	Username string
	Password string
	Role     string
	Name     *string
	PII      *string
}

// UserUpdate lists the mutable columns; nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	PII          *string
	Role         *string
	PasswordHash *string
}

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, name, pii) VALUES (?,?,?,?,?)",
		strings.TrimSpace(nu.Username), hash, nu.Role, nu.Name, nu.PII)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of upd and returns the fresh row.
func (r *UserRepo) Update(ctx context.Context, username string, upd UserUpdate) (model.User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if upd.Name != nil {
		sets, args = append(sets, "name=?"), append(args, *upd.Name)
	}
	if upd.PII != nil {
		sets, args = append(sets, "pii=?"), append(args, *upd.PII)
	}
	if upd.Role != nil {
		sets, args = append(sets, "role=?"), append(args, *upd.Role)
	}
	if upd.PasswordHash != nil {
		sets, args = append(sets, "password_hash=?"), append(args, *upd.PasswordHash)
	}
	if len(sets) > 0 {
		args = append(args, username)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ",")+" WHERE username=?", args...); err != nil {
			return model.User{}, err
		}
	}
	// RowsAffected is 0 both for a missing row and an unchanged one, so
	// existence is decided by the read.
	return r.GetByUsername(ctx, username)
}

// Delete removes a user.
func (r *UserRepo) Delete(ctx context.Context, username string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE username=?", username)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(s scanner) (model.User, error) {
	var (
		u    model.User
		name sql.NullString
		pii  sql.NullString
	)
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &name, &pii, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	if pii.Valid {
		u.PII = &pii.String
	}
	return u, nil
}
