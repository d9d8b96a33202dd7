package middleware

// identity.go defines how the authenticated principal travels through the
// Echo context.  Authenticate and OptionalAuth store a utils.Identity under
// identityKey; handlers and the remaining middleware read it back through
// IdentityFrom.  A request that carries no valid token gets Anonymous.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/utils"
)

const identityKey = "identity"

// RoleAnonymous is the role of callers without a valid access token.
const RoleAnonymous = "anonymous"

// Anonymous is the identity attached by OptionalAuth when authentication
// fails.  UserID zero never matches a stored user.
var Anonymous = utils.Identity{Role: RoleAnonymous}

// IdentityFrom returns the identity attached to c.  ok is false when no
// auth middleware ran or when the caller is anonymous.
func IdentityFrom(c echo.Context) (id utils.Identity, ok bool) {
	id, found := c.Get(identityKey).(utils.Identity)
	if !found {
		return Anonymous, false
	}
	return id, id.Role != RoleAnonymous
}

// SetIdentity attaches id to c.
func SetIdentity(c echo.Context, id utils.Identity) { c.Set(identityKey, id) }

// userID returns the caller's numeric id as a string or "anon".
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}

// userRole returns the caller's role, RoleAnonymous when unauthenticated.
func userRole(c echo.Context) string {
	id, _ := IdentityFrom(c)
	return id.Role
}
