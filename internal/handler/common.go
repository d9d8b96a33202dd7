package handler // handler defines http handlers

import (
	"context" // request-scoped deadlines for storage calls
	"errors"
	"net/http"
	"strconv" // path id parsing
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackathon-range/shop-backend/internal/middleware"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/service"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

// dbTimeout bounds every storage round trip made by a handler.
const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.InvalidInput:
		return http.StatusBadRequest
	case service.AuthenticationRequired:
		return http.StatusUnauthorized
	case service.AuthenticationInvalid, service.AuthorizationDenied:
		return http.StatusForbidden
	case service.NotFound:
		return http.StatusNotFound
	case service.Conflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": msg}.  Storage failures are logged
// with their cause and answered with a generic message so schema and query
// details never reach the client.
func respondError(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = service.Wrap(service.StorageError, err, "unclassified")
	}
	status := statusFor(se.Kind)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		return c.JSON(status, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(status, echo.Map{"error": se.Msg})
}

// classify turns a repository error into a service error.  notFound is
// the client message used for repository.ErrNotFound.
func classify(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return service.Errorf(service.NotFound, "%s", notFound)
	case errors.Is(err, repository.ErrUsernameExists):
		return service.Errorf(service.Conflict, "Username already exists")
	}
	return service.Wrap(service.StorageError, err, "storage")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.Errorf(service.InvalidInput, "invalid %s", name)
	}
	return id, nil
}

// caller returns the identity attached by the auth middleware.
func caller(c echo.Context) (utils.Identity, bool) { return middleware.IdentityFrom(c) }

func isAdmin(id utils.Identity) bool { return id.Role == model.RoleAdmin }

func forbidden(msg string) error { return service.Errorf(service.AuthorizationDenied, "%s", msg) }

func invalid(msg string) error { return service.Errorf(service.InvalidInput, "%s", msg) }
