package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/api/middleware"
	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping pairs a domain sentinel with its HTTP rendering. An empty
// message exposes err.Error(), which is safe for lookup and validation errors.
type errorMapping struct {
	target error
	code   int
	msg    string
}

var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrNotificationNotFound, http.StatusNotFound, "notification not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrLeadNotFound, http.StatusNotFound, ""},
	{domain.ErrProductNotFound, http.StatusNotFound, ""},
	{domain.ErrLeadProductNotFound, http.StatusNotFound, ""},
	{domain.ErrInvalidReminder, http.StatusUnprocessableEntity, ""},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Domain errors
// get their mapped status; anything else is logged and reported as a 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err)
		if code >= http.StatusInternalServerError {
			l := logger.From(c.Request().Context(), log)
			l.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Interface("user_id", c.Get(middleware.CtxUserID)).
				Msg("unhandled error")
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.msg == "" {
				return m.code, err.Error()
			}
			return m.code, m.msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
