package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes
	"strings"

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

const msgForbidden = "forbidden"

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It must run after
// Authenticate; a request without an identity is answered with 401 and a
// request whose role is not in the allowed set with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant‑time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgTokenRequired})
			}
			if !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": msgForbidden})
			}
			return next(c)
		}
	}
}

// RequireSelfOrRole lets a request through when the path parameter param
// equals the caller's username ignoring case, as the users table does, or
// when the caller holds role.  This is
// the "users act on their own resource, admins on anyone's" gate.
func RequireSelfOrRole(param, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgTokenRequired})
			}
			if id.Role != role && !strings.EqualFold(c.Param(param), id.Username) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": msgForbidden})
			}
			return next(c)
		}
	}
}
