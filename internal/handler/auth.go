package handler

import (
	"errors"   // errors distinguishes repository sentinels
	"net/http" // HTTP status codes and cookies
	"strings"  // string manipulation utilities
	"time"     // cookie lifetimes

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/hackathon-range/shop-backend/internal/config"     // app configuration
	"github.com/hackathon-range/shop-backend/internal/middleware" // cookie names
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository" // DB repositories
	"github.com/hackathon-range/shop-backend/internal/utils"      // helper functions (hashing, token issuing)
)

// RefreshPath is the only path the refresh cookie is sent to.
const RefreshPath = "/api/users/refresh"

// AuthHandler bundles dependencies for the session endpoints: register,
// login, refresh and logout.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenIssuer
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenIssuer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	PII      *string `json:"PII"`
	Role     string  `json:"role"` // customer | admin
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// sessionUser is the user summary returned on login.
type sessionUser struct {
	Username string  `json:"username"`
	ID       uint64  `json:"id"`
	Name     *string `json:"name"`
	Role     string  `json:"role"`
}

// Register creates an account.  Anyone may create a customer; creating an
// admin requires an authenticated admin caller (the route runs behind
// OptionalAuth).
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return respondError(c, invalid("Username and password are required"))
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleCustomer
	}
	if !model.ValidRole(role) {
		return respondError(c, invalid("invalid role"))
	}
	if role == model.RoleAdmin {
		if who, ok := caller(c); !ok || !isAdmin(who) {
			return respondError(c, forbidden("Only admins can create admin users"))
		}
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.NewUser{
		Username: req.Username,
		Password: req.Password,
		Role:     role,
		Name:     req.Name,
		PII:      req.PII,
	}, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created successfully",
		"user":    newUserView(u),
	})
}

// Login verifies the credentials and sets the accessToken and refreshToken
// cookies.  Unknown users and wrong passwords get the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return respondError(c, invalid("Username and password are required"))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}

	pair, err := h.Tokens.Issue(utils.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	h.setCookie(c, middleware.AccessCookie, pair.Access.Token, "/", h.Tokens.AccessTTL())
	h.setCookie(c, middleware.RefreshCookie, pair.Refresh.Token, RefreshPath, h.Tokens.RefreshTTL())

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    sessionUser{Username: u.Username, ID: u.ID, Name: u.Name, Role: u.Role},
	})
}

// Refresh exchanges a refresh token (cookie first, then body) for a new
// access token cookie.  The refresh token is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
		raw = strings.TrimSpace(ck.Value)
	}
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Refresh token required"})
	}

	access, err := h.Tokens.Refresh(raw)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid or expired refresh token"})
	}
	h.setCookie(c, middleware.AccessCookie, access.Token, "/", h.Tokens.AccessTTL())
	return c.JSON(http.StatusOK, echo.Map{"message": "Token refreshed successfully"})
}

// Logout clears both cookies.  Tokens are stateless, so nothing is revoked
// server side.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.setCookie(c, middleware.AccessCookie, "", "/", -1)
	h.setCookie(c, middleware.RefreshCookie, "", RefreshPath, -1)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// setCookie writes an HttpOnly, SameSite=Strict cookie.  A negative ttl
// deletes it.
func (h *AuthHandler) setCookie(c echo.Context, name, value, path string, ttl time.Duration) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   h.Cfg.Production(),
		SameSite: http.SameSiteStrictMode,
	}
	if ttl < 0 {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	} else {
		ck.MaxAge = int(ttl / time.Second)
		ck.Expires = time.Now().Add(ttl)
	}
	c.SetCookie(ck)
}
