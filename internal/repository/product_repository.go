package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gosimple/slug"

	"github.com/hackathon-range/shop-backend/internal/model"
)

const productColumns = "id,name,slug,description,price,image,category,released,honeypot,payable_to,created_by,created_at,updated_at"

// ProductRepo provides CRUD for the catalog plus the one lookup the
// scoring engine needs (the unreleased product's description).
type ProductRepo struct{ db *sql.DB }

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductUpdate lists the mutable columns; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
	Category    *string
	Released    *bool
	Honeypot    *bool
	PayableTo   *uint64
}

// Create inserts p, filling in its slug, ID and timestamps.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	p.Slug = slug.Make(p.Name)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, slug, description, price, image, category, released, honeypot, payable_to, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Slug, p.Description, p.Price, p.Image, p.Category, p.Released, p.Honeypot, p.PayableTo, p.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = created
	return nil
}

// GetByID returns a product regardless of visibility; callers apply
// model.ProductFilter.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id=?", id)
	return scanProduct(row)
}

// List returns the products visible under f, newest first.
func (r *ProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	q := "SELECT " + productColumns + " FROM products"
	var where []string
	if !f.IncludeUnreleased {
		where = append(where, "released = TRUE")
	}
	if !f.IncludeHoneypot {
		where = append(where, "honeypot = FALSE")
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of upd and returns the fresh row.
func (r *ProductRepo) Update(ctx context.Context, id uint64, upd ProductUpdate) (model.Product, error) {
	var sets []string
	var args []any
	if upd.Name != nil {
		sets = append(sets, "name=?", "slug=?")
		args = append(args, *upd.Name, slug.Make(*upd.Name))
	}
	if upd.Description != nil {
		sets, args = append(sets, "description=?"), append(args, *upd.Description)
	}
	if upd.Price != nil {
		sets, args = append(sets, "price=?"), append(args, *upd.Price)
	}
	if upd.Image != nil {
		sets, args = append(sets, "image=?"), append(args, *upd.Image)
	}
	if upd.Category != nil {
		sets, args = append(sets, "category=?"), append(args, *upd.Category)
	}
	if upd.Released != nil {
		sets, args = append(sets, "released=?"), append(args, *upd.Released)
	}
	if upd.Honeypot != nil {
		sets, args = append(sets, "honeypot=?"), append(args, *upd.Honeypot)
	}
	if upd.PayableTo != nil {
		sets, args = append(sets, "payable_to=?"), append(args, *upd.PayableTo)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx, "UPDATE products SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
			return model.Product{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of catalog rows.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

// UnreleasedDescription returns the description of the unreleased
// product.  When several exist the oldest one (lowest id) is the answer;
// ok is false when there is none.
func (r *ProductRepo) UnreleasedDescription(ctx context.Context) (desc string, ok bool, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT description FROM products WHERE released = FALSE ORDER BY id LIMIT 1").Scan(&desc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return desc, true, nil
}

func scanProduct(s scanner) (model.Product, error) {
	var (
		p         model.Product
		createdBy sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Image, &p.Category,
		&p.Released, &p.Honeypot, &p.PayableTo, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		p.CreatedBy = &id
	}
	return p, nil
}
