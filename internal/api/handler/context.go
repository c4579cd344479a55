package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/api/middleware"
	"github.com/leadbook/crm-system/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fails fast when it is missing or incomplete.
func ctxIdentity(c echo.Context) (domain.UserIdentity, error) {
	id, ok := c.Get(middleware.CtxIdentity).(domain.UserIdentity)
	if !ok || id.ID == "" || !id.Role.Valid() {
		return domain.UserIdentity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
