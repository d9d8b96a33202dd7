package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hackathon-range/shop-backend/internal/model"
)

// ForumRepo persists forum messages.  Authors are joined in on read.
type ForumRepo struct{ db *sql.DB }

func NewForumRepo(db *sql.DB) *ForumRepo { return &ForumRepo{db: db} }

const forumSelect = `SELECT m.id, m.title, m.body, m.author_id, m.created_at, u.id, u.username, u.name
	FROM forum_messages m LEFT JOIN users u ON u.id = m.author_id`

// Create inserts a message and returns it with its author.
func (r *ForumRepo) Create(ctx context.Context, title, body string, authorID uint64) (model.ForumMessage, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO forum_messages (title, body, author_id) VALUES (?,?,?)", title, body, authorID)
	if err != nil {
		return model.ForumMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ForumMessage{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns a single message.
func (r *ForumRepo) GetByID(ctx context.Context, id uint64) (model.ForumMessage, error) {
	return scanForum(r.db.QueryRowContext(ctx, forumSelect+" WHERE m.id = ?", id))
}

// List returns all messages, oldest first.
func (r *ForumRepo) List(ctx context.Context) ([]model.ForumMessage, error) {
	rows, err := r.db.QueryContext(ctx, forumSelect+" ORDER BY m.created_at ASC, m.id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ForumMessage{}
	for rows.Next() {
		m, err := scanForum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update replaces the non-empty fields of a message and returns it.
func (r *ForumRepo) Update(ctx context.Context, id uint64, title, body string) (model.ForumMessage, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE forum_messages SET title = IF(? = '', title, ?), body = IF(? = '', body, ?) WHERE id = ?",
		title, title, body, body, id); err != nil {
		return model.ForumMessage{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a message.
func (r *ForumRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM forum_messages WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanForum(s scanner) (model.ForumMessage, error) {
	var (
		m        model.ForumMessage
		uid      sql.NullInt64
		username sql.NullString
		name     sql.NullString
	)
	err := s.Scan(&m.ID, &m.Title, &m.Body, &m.AuthorID, &m.CreatedAt, &uid, &username, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ForumMessage{}, ErrNotFound
	}
	if err != nil {
		return model.ForumMessage{}, err
	}
	if uid.Valid {
		m.Author = &model.ForumAuthor{ID: uint64(uid.Int64), Username: username.String}
		if name.Valid {
			m.Author.Name = &name.String
		}
	}
	return m, nil
}
