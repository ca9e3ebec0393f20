package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tcc/task-manager-api/internal/api/middleware"
)

// identity is the per-request view of the claims injected by the Auth
// middleware. It exists only for the duration of request handling.
type identity struct {
	Username string
	Role     string
	UserID   string
	Email    string
}

// ctxIdentity extracts the resolved identity and performs a fast-fail check
// before any service call: username and user id must be present (their
// presence proves the resolver ran and the token carried a usable subject).
func ctxIdentity(c echo.Context) (identity, error) {
	id := identity{}
	id.Username, _ = c.Get(middleware.CtxUsername).(string)
	id.Role, _ = c.Get(middleware.CtxRole).(string)
	id.UserID, _ = c.Get(middleware.CtxUserID).(string)
	id.Email, _ = c.Get(middleware.CtxEmail).(string)

	if id.Username == "" || id.UserID == "" {
		return identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
