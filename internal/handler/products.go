package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// Defaults for optional product fields.
const (
	defaultImage    = "https://via.placeholder.com/300x200"
	defaultCategory = "General"
)

// ProductHandler serves the catalog.  Reads run behind OptionalAuth so
// the visible set depends on the caller; writes require Authenticate.
type ProductHandler struct {
	Products      ProductStore
	Users         UserStore
	AdminUsername string // default payee of new products
}

func NewProductHandler(p ProductStore, u UserStore, adminUsername string) *ProductHandler {
	return &ProductHandler{Products: p, Users: u, AdminUsername: adminUsername}
}

type productReq struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Image       *string  `json:"image"`
	Category    *string  `json:"category"`
	Released    *bool    `json:"released"`
	Honeypot    *bool    `json:"honeypot"`
	PayableTo   *uint64  `json:"payableTo"`
}

// filterFor picks the visible catalog: admins see everything, everyone
// else sees released non-decoy items, and ?debug=true also reveals the
// decoys.
func filterFor(c echo.Context) model.ProductFilter {
	if who, ok := caller(c); ok && isAdmin(who) {
		return model.ProductFilter{IncludeUnreleased: true, IncludeHoneypot: true}
	}
	return model.ProductFilter{IncludeHoneypot: strings.EqualFold(c.QueryParam("debug"), "true")}
}

// List returns the visible catalog, newest first.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	products, err := h.Products.List(ctx, filterFor(c))
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

// Get returns one product.  A product hidden from the caller is reported
// as missing.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if err == nil && !filterFor(c).Allows(p) {
		err = repository.ErrNotFound
	}
	if err != nil {
		return respondError(c, classify(err, "Product not found"))
	}
	return c.JSON(http.StatusOK, p)
}

// Create registers a product.  Any authenticated user may register one;
// only admins may create it unreleased or as a honeypot.
func (h *ProductHandler) Create(c echo.Context) error {
	who, _ := caller(c)
	var req productReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Description == nil || *req.Description == "" || req.Price == nil {
		return respondError(c, invalid("Missing required fields"))
	}
	if err := utils.ValidatePrice(*req.Price); err != nil {
		return respondError(c, invalid(err.Error()))
	}
	if err := checkPrivilegedFlags(who, req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	p := model.Product{
		Name:        strings.TrimSpace(*req.Name),
		Description: *req.Description,
		Price:       *req.Price,
		Image:       orDefault(req.Image, defaultImage),
		Category:    orDefault(req.Category, defaultCategory),
		Released:    req.Released == nil || *req.Released,
		Honeypot:    req.Honeypot != nil && *req.Honeypot,
		CreatedBy:   &who.UserID,
	}
	payee, err := h.payee(ctx, req.PayableTo)
	if err != nil {
		return respondError(c, err)
	}
	p.PayableTo = payee

	if err := h.Products.Create(ctx, &p); err != nil {
		return respondError(c, classify(err, ""))
	}
	return c.JSON(http.StatusCreated, p)
}

// Update changes a product.  Only its creator or an admin may do so.
func (h *ProductHandler) Update(c echo.Context) error {
	who, _ := caller(c)
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	if req.Price != nil {
		if err := utils.ValidatePrice(*req.Price); err != nil {
			return respondError(c, invalid(err.Error()))
		}
	}
	if err := checkPrivilegedFlags(who, req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.authorizeOwner(ctx, c, who, id); err != nil {
		return respondError(c, err)
	}
	if req.PayableTo != nil {
		if _, err := h.payee(ctx, req.PayableTo); err != nil {
			return respondError(c, err)
		}
	}
	p, err := h.Products.Update(ctx, id, repository.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Released:    req.Released,
		Honeypot:    req.Honeypot,
		PayableTo:   req.PayableTo,
	})
	if err != nil {
		return respondError(c, classify(err, "Product not found"))
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a product.  Only its creator or an admin may do so.
func (h *ProductHandler) Delete(c echo.Context) error {
	who, _ := caller(c)
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.authorizeOwner(ctx, c, who, id); err != nil {
		return respondError(c, err)
	}
	if err := h.Products.Delete(ctx, id); err != nil {
		return respondError(c, classify(err, "Product not found"))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) authorizeOwner(ctx context.Context, c echo.Context, who utils.Identity, id uint64) error {
	p, err := h.Products.GetByID(ctx, id)
	if err == nil && !filterFor(c).Allows(p) {
		err = repository.ErrNotFound
	}
	if err != nil {
		return classify(err, "Product not found")
	}
	if isAdmin(who) || (p.CreatedBy != nil && *p.CreatedBy == who.UserID) {
		return nil
	}
	return forbidden("Not authorized to modify this product")
}

// payee resolves the payableTo of a product: the requested user when
// given, the platform admin otherwise.
func (h *ProductHandler) payee(ctx context.Context, requested *uint64) (uint64, error) {
	if requested != nil {
		if _, err := h.Users.GetByID(ctx, *requested); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, invalid("payableTo does not reference a user")
			}
			return 0, classify(err, "")
		}
		return *requested, nil
	}
	admin, err := h.Users.GetByUsername(ctx, h.AdminUsername)
	if err != nil {
		return 0, classify(err, "platform admin not found")
	}
	return admin.ID, nil
}

func checkPrivilegedFlags(who utils.Identity, req productReq) error {
	if isAdmin(who) {
		return nil
	}
	if req.Released != nil && !*req.Released {
		return forbidden("Only admins can create unreleased products")
	}
	if req.Honeypot != nil && *req.Honeypot {
		return forbidden("Only admins can create honeypot products")
	}
	return nil
}

func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return *v
}
