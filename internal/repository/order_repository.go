package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hackathon-range/shop-backend/internal/model"
)

const orderColumns = "id,user_id,total,status,customer_name,customer_email,shipping_address,client_ip,created_at,updated_at"

// OrderRepo persists orders and their line items.  An order and its items
// are always written in one transaction so readers never observe an order
// with a partial set of lines.
type OrderRepo struct{ db *sql.DB }

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts o and its items, then reloads it with products attached.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, total, status, customer_name, customer_email, shipping_address, client_ip)
		 VALUES (?,?,?,?,?,?,?)`,
		o.UserID, o.Total, model.OrderPending, o.CustomerName, o.CustomerEmail, o.ShippingAddress, o.ClientIP)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := createItemsTx(ctx, tx, uint64(id), o.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*o = created
	return nil
}

// createItemsTx inserts all lines of an order in a single statement.
func createItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO order_items (order_id, product_id, quantity, price, payable_to, honeypot) VALUES ")
	args := make([]any, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?,?,?,?,?,?)")
		args = append(args, orderID, it.ProductID, it.Quantity, it.Price, it.PayableTo, it.Honeypot)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// GetByID returns an order with its items.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id=?", id))
	if err != nil {
		return model.Order{}, err
	}
	items, err := r.loadItems(ctx, []uint64{o.ID})
	if err != nil {
		return model.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// List returns every order, newest first, with items attached.
func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []model.Order{}
	ids := []uint64{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// UpdateStatus sets the order status and returns the fresh row.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error) {
	if _, err := r.db.ExecContext(ctx, "UPDATE orders SET status=? WHERE id=?", status, id); err != nil {
		return model.Order{}, err
	}
	return r.GetByID(ctx, id)
}

// scoringLinesQuery reads the honeypot flag recorded on each line, so
// deleted or edited products do not change past scores.  NULL owners
// fail `o.user_id <> ?` and never reach the payee branch.
const scoringLinesQuery = `SELECT oi.order_id, o.user_id, o.total, oi.price, oi.quantity, oi.payable_to, oi.honeypot
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE (o.user_id = ? AND o.total = 0) OR (oi.payable_to = ? AND o.user_id <> ?)`

// ScoringLines returns, in one query, every line relevant to userID's
// dynamic score: lines of zero-total orders the user owns and lines whose
// payee is the user on orders placed by another registered user.  The
// scoring engine applies the final rules.
func (r *OrderRepo) ScoringLines(ctx context.Context, userID uint64) ([]model.LedgerLine, error) {
	rows, err := r.db.QueryContext(ctx, scoringLinesQuery, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []model.LedgerLine
	for rows.Next() {
		var (
			l     model.LedgerLine
			buyer sql.NullInt64
		)
		if err := rows.Scan(&l.OrderID, &buyer, &l.OrderTotal, &l.Price, &l.Quantity, &l.PayableTo, &l.Honeypot); err != nil {
			return nil, err
		}
		if buyer.Valid {
			id := uint64(buyer.Int64)
			l.BuyerID = &id
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// loadItems fetches the lines of the given orders and attaches products.
func (r *OrderRepo) loadItems(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	out := make(map[uint64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	q := "SELECT id, order_id, product_id, quantity, price, payable_to, honeypot FROM order_items WHERE order_id IN (" +
		placeholders(len(orderIDs)) + ") ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, uint64Args(orderIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	productIDs := map[uint64]struct{}{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.PayableTo, &it.Honeypot); err != nil {
			return nil, err
		}
		items = append(items, it)
		productIDs[it.ProductID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	products, err := r.productsByID(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if p, ok := products[it.ProductID]; ok {
			it.Product = &p
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func (r *OrderRepo) productsByID(ctx context.Context, ids map[uint64]struct{}) (map[uint64]model.Product, error) {
	out := make(map[uint64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list := make([]uint64, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id IN ("+placeholders(len(list))+")", uint64Args(list)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func scanOrder(s scanner) (model.Order, error) {
	var (
		o    model.Order
		user sql.NullInt64
	)
	err := s.Scan(&o.ID, &user, &o.Total, &o.Status, &o.CustomerName, &o.CustomerEmail,
		&o.ShippingAddress, &o.ClientIP, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	if user.Valid {
		id := uint64(user.Int64)
		o.UserID = &id
	}
	o.Items = []model.OrderItem{}
	return o, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func uint64Args(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
