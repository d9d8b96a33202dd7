package model

import "time"

// MaxPrice bounds the unit price of products and order lines.
const MaxPrice = 200.0

// Order bounds follow the column types: orders.total is DECIMAL(12,2) and
// order_items.quantity is a signed INT.
const (
	MaxOrderTotal = 9999999999.99
	MaxQuantity   = 1<<31 - 1
)

// Product is a catalog entry.  Released=false hides the item from everyone
// except admins; Honeypot marks decoy items whose purchase costs the buyer
// points.  PayableTo is the user credited when the item is sold.
type Product struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	Released    bool      `json:"released"`
	Honeypot    bool      `json:"honeypot"`
	PayableTo   uint64    `json:"payableTo"`
	CreatedBy   *uint64   `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductFilter selects which catalog entries a caller may see.
type ProductFilter struct {
	IncludeUnreleased bool
	IncludeHoneypot   bool
}

// Allows reports whether p passes the filter.
func (f ProductFilter) Allows(p Product) bool {
	if !p.Released && !f.IncludeUnreleased {
		return false
	}
	if p.Honeypot && !f.IncludeHoneypot {
		return false
	}
	return true
}
