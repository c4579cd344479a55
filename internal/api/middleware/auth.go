package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/ports"
)

// Context keys set by Auth.
const (
	CtxUserID   = "uid"
	CtxRole     = "role"
	CtxName     = "name"
	CtxIdentity = "identity"
)

// Auth validates the bearer token and injects the caller's identity into the
// context. Browsers cannot set headers on an EventSource, so a token query
// parameter is accepted as well.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}

			id, err := authn.Authenticate(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxUserID, id.ID)
			c.Set(CtxRole, string(id.Role))
			c.Set(CtxName, id.Name)
			c.Set(CtxIdentity, id)

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if q := c.QueryParam("token"); q != "" {
			return q, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
