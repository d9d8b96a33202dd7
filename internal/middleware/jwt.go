package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/hackathon-range/shop-backend/internal/utils"
)

// Cookie names shared with the auth handlers.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Client-visible messages.  Expired and forged tokens share one message.
const (
	msgTokenRequired = "access token required"
	msgTokenInvalid  = "invalid or expired token"
)

// Verifier checks a raw token of the given class.  *utils.TokenService
// satisfies it.
type Verifier interface {
	Verify(raw string, class utils.TokenClass) (*utils.Claims, error)
}

// Authenticate returns an Echo middleware that requires a valid access
// token.  The token is read from the accessToken cookie and, when no cookie
// is present, from an "Authorization: Bearer" header.  A request with no
// token at all is rejected with 401; a token that fails verification for
// any reason is rejected with 403.  On success the caller's identity is
// stored in the context for IdentityFrom.
func Authenticate(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msgTokenRequired})
			}
			claims, err := v.Verify(raw, utils.AccessClass)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": msgTokenInvalid})
			}
			SetIdentity(c, claims.Identity())
			return next(c)
		}
	}
}

// OptionalAuth behaves like Authenticate but never rejects: when the token
// is missing or fails verification the request proceeds as Anonymous.
// It is used on reads whose result depends on the caller's role.
func OptionalAuth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := Anonymous
			if raw := tokenFrom(c); raw != "" {
				if claims, err := v.Verify(raw, utils.AccessClass); err == nil {
					id = claims.Identity()
				}
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// tokenFrom prefers the cookie over the Authorization header.
func tokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
