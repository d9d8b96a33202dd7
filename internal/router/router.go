package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/hackathon-range/shop-backend/internal/handler"    // import the handlers that implement business logic
	"github.com/hackathon-range/shop-backend/internal/middleware" // import middleware for authentication and role enforcement
	"github.com/hackathon-range/shop-backend/internal/model"
)

// RegisterRoutes registers the health checks.  /healthz is for load
// balancers; /api/health is polled by the web clients.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.APIHealth)
}

// RegisterAuth registers the session endpoints under /api/users.  Register
// runs behind OptionalAuth so an admin caller can create other admins;
// login, refresh and logout need no session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.Verifier) {
	g := e.Group("/api/users")
	g.POST("", a.Register, middleware.OptionalAuth(v))
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterUsers registers profile routes.  Every route requires a valid
// access token; /:username routes are limited to the named user or an
// admin, and listing or deleting users is admin only.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, v middleware.Verifier) {
	g := e.Group("/api/users", middleware.Authenticate(v))
	g.GET("/me", u.Me)
	g.GET("/profile/me", u.Me)
	g.GET("", u.List, middleware.RequireRole(model.RoleAdmin))

	self := middleware.RequireSelfOrRole("username", model.RoleAdmin)
	g.GET("/:username", u.Get, self)
	g.PUT("/:username", u.Update, self)
	g.DELETE("/:username", u.Delete, middleware.RequireRole(model.RoleAdmin))
}
