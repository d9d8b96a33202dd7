package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// OrderHandler serves checkout and order administration.
type OrderHandler struct {
	Orders   OrderStore
	Products ProductStore
}

func NewOrderHandler(o OrderStore, p ProductStore) *OrderHandler {
	return &OrderHandler{Orders: o, Products: p}
}

type orderItemReq struct {
	ID        uint64   `json:"id"`
	ProductID uint64   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Price     *float64 `json:"price"`
	PayableTo *uint64  `json:"payableTo"`
}

type customerReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

type createOrderReq struct {
	Items    []orderItemReq `json:"items"`
	Total    *float64       `json:"total"`
	Customer *customerReq   `json:"customer"`
}

type statusReq struct {
	Status string `json:"status"`
}

// Create places an order.  The total, each line's price and each line's
// payableTo are taken from the client as submitted; only their ranges are
// checked.  Missing line prices and payees fall back to the product's.
// Anonymous checkouts are stored without an owner.
func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	if len(req.Items) == 0 || req.Total == nil || req.Customer == nil {
		return respondError(c, invalid("Missing required fields"))
	}
	if err := utils.ValidateTotal(*req.Total); err != nil {
		return respondError(c, invalid(err.Error()))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	o := model.Order{
		Total:           utils.Round2(*req.Total),
		CustomerName:    req.Customer.Name,
		CustomerEmail:   req.Customer.Email,
		ShippingAddress: shippingAddress(*req.Customer),
		ClientIP:        c.RealIP(),
	}
	if who, ok := caller(c); ok {
		o.UserID = &who.UserID
	}
	for i, it := range req.Items {
		pid := it.ProductID
		if pid == 0 {
			pid = it.ID
		}
		if err := utils.ValidateQuantity(it.Quantity); err != nil {
			return respondError(c, invalid(fmt.Sprintf("items[%d]: %v", i, err)))
		}
		p, err := h.Products.GetByID(ctx, pid)
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, invalid(fmt.Sprintf("items[%d]: unknown product %d", i, pid)))
		}
		if err != nil {
			return respondError(c, classify(err, ""))
		}
		line := model.OrderItem{ProductID: p.ID, Quantity: it.Quantity, Price: p.Price, PayableTo: p.PayableTo, Honeypot: p.Honeypot}
		if it.Price != nil {
			if err := utils.ValidatePrice(*it.Price); err != nil {
				return respondError(c, invalid(fmt.Sprintf("items[%d]: %v", i, err)))
			}
			line.Price = *it.Price
		}
		if it.PayableTo != nil {
			line.PayableTo = *it.PayableTo
		}
		o.Items = append(o.Items, line)
	}

	if err := h.Orders.Create(ctx, &o); err != nil {
		return respondError(c, classify(err, ""))
	}
	return c.JSON(http.StatusCreated, o)
}

// List returns every order (admin only).
func (h *OrderHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	orders, err := h.Orders.List(ctx)
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	return c.JSON(http.StatusOK, orders)
}

// Get returns one order to its owner or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	who, _ := caller(c)
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return respondError(c, classify(err, "Order not found"))
	}
	if !isAdmin(who) && (o.UserID == nil || *o.UserID != who.UserID) {
		return respondError(c, forbidden("Access denied"))
	}
	return c.JSON(http.StatusOK, o)
}

// UpdateStatus moves an order to another status (admin only).
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || !model.ValidOrderStatus(req.Status) {
		return respondError(c, invalid("Invalid status"))
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	o, err := h.Orders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return respondError(c, classify(err, "Order not found"))
	}
	return c.JSON(http.StatusOK, o)
}

func shippingAddress(cu customerReq) string {
	city := strings.TrimSpace(strings.TrimSpace(cu.City) + " " + strings.TrimSpace(cu.ZipCode))
	parts := make([]string, 0, 2)
	for _, p := range []string{strings.TrimSpace(cu.Address), city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
