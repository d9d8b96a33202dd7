package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/config"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// UserHandler serves profile reads and updates.  Routes are expected to
// run behind Authenticate; ownership is enforced by RequireSelfOrRole
// except where noted.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserHandler(cfg config.Config, u UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

// userView is the profile shape.  PII is included because every route
// returning it is restricted to the owner or an admin.
type userView struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Name      *string   `json:"name"`
	Role      string    `json:"role"`
	PII       *string   `json:"PII"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserView(u model.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		PII:       u.PII,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type updateUserReq struct {
	Name     *string `json:"name"`
	PII      *string `json:"PII"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	who, _ := caller(c)
	ctx, cancel := dbContext(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, who.UserID)
	if err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	return c.JSON(http.StatusOK, newUserView(u))
}

// List returns every user (admin only).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, classify(err, ""))
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns the profile named by :username.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	u, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	return c.JSON(http.StatusOK, newUserView(u))
}

// Update changes name, PII, password and, for admins only, role.
func (h *UserHandler) Update(c echo.Context) error {
	who, _ := caller(c)
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalid("invalid body"))
	}

	upd := repository.UserUpdate{Name: req.Name, PII: req.PII}
	if req.Role != nil {
		if !isAdmin(who) {
			return respondError(c, forbidden("Only admins can change user roles"))
		}
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !model.ValidRole(role) {
			return respondError(c, invalid("invalid role"))
		}
		upd.Role = &role
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return respondError(c, classify(err, ""))
		}
		upd.PasswordHash = &hash
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	u, err := h.Users.Update(ctx, c.Param("username"), upd)
	if err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User updated successfully",
		"user":    newUserView(u),
	})
}

// Delete removes a user (admin only).
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Users.Delete(ctx, c.Param("username")); err != nil {
		return respondError(c, classify(err, "User not found"))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
