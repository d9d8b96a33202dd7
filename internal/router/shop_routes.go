package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/handler"
	"github.com/hackathon-range/shop-backend/internal/middleware"
	"github.com/hackathon-range/shop-backend/internal/model"
)

// RegisterCatalog registers the product routes.  Reads run behind
// OptionalAuth followed by the response cache, so the cache can key on the
// caller's role.  Writes require a session and invalidate the cache on
// success; ownership is checked in the handler.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, v middleware.Verifier, cache *middleware.ResponseCache) {
	g := e.Group("/api/products")
	read := []echo.MiddlewareFunc{middleware.OptionalAuth(v), cache.Middleware()}
	g.GET("", p.List, read...)
	g.GET("/:id", p.Get, read...)

	write := []echo.MiddlewareFunc{middleware.Authenticate(v), cache.Invalidate()}
	g.POST("", p.Create, write...)
	g.PUT("/:id", p.Update, write...)
	g.DELETE("/:id", p.Delete, write...)
}

// RegisterOrders registers checkout and order administration.  Checkout
// is open to anonymous callers; an authenticated caller becomes the
// order's owner.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, v middleware.Verifier) {
	g := e.Group("/api/orders")
	g.POST("", o.Create, middleware.OptionalAuth(v))

	auth := middleware.Authenticate(v)
	admin := middleware.RequireRole(model.RoleAdmin)
	g.GET("", o.List, auth, admin)
	g.GET("/:id", o.Get, auth)
	g.PUT("/:id/status", o.UpdateStatus, auth, admin)
}
