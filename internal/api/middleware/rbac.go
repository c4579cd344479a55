package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// RBAC admits callers whose role is among allowed. It must run after Auth;
// a request without an identity is treated as unauthenticated.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := c.Get(CtxIdentity).(domain.UserIdentity)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
			}
			for _, r := range allowed {
				if id.Role == r {
					return next(c)
				}
			}
			return fmt.Errorf("%s %s as %s: %w", c.Request().Method, c.Path(), id.Role, domain.ErrForbidden)
		}
	}
}
