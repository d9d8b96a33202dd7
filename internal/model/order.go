package model

import "time"

// Order statuses.  Orders are created pending; only admins move them on.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is an enumerated order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is a purchase.  UserID is nil for anonymous checkouts.  Total is
// whatever the client submitted and is not recomputed from the lines.
type Order struct {
	ID              uint64      `json:"id"`
	UserID          *uint64     `json:"userId"`
	Total           float64     `json:"total"`
	Status          string      `json:"status"`
	CustomerName    string      `json:"customerName"`
	CustomerEmail   string      `json:"customerEmail"`
	ShippingAddress string      `json:"shippingAddress"`
	ClientIP        string      `json:"clientIp"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// OrderItem is a single order line.  Price is a snapshot taken at order
// time and PayableTo is chosen by the client, independently of the
// product's own payee.
type OrderItem struct {
	ID        uint64  `json:"id"`
	OrderID   uint64  `json:"orderId"`
	ProductID uint64  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	PayableTo uint64  `json:"payableTo"`
	// Honeypot is copied from the product at checkout so the penalty
	// survives later edits or deletion of the product.
	Honeypot bool     `json:"-"`
	Product  *Product `json:"product,omitempty"`
}

// LedgerLine is the flattened view of an order line the scoring engine
// reads: the line itself plus its order's owner and total and the
// honeypot flag recorded on the line.
type LedgerLine struct {
	OrderID    uint64
	BuyerID    *uint64
	OrderTotal float64
	Price      float64
	Quantity   int
	PayableTo  uint64
	Honeypot   bool
}

// Amount is price × quantity.
func (l LedgerLine) Amount() float64 { return l.Price * float64(l.Quantity) }
