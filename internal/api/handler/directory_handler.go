package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/ports"
)

const directoryRefreshTimeout = 10 * time.Second

// DirectoryHandler exposes a manual user-directory refresh.
type DirectoryHandler struct {
	directory ports.Directory
}

func NewDirectoryHandler(directory ports.Directory) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

type directoryRefreshResponse struct {
	Users   int       `json:"users"`
	Owners  int       `json:"owners"`
	BuiltAt time.Time `json:"builtAt"`
}

// Refresh handles POST /v1/directory/refresh: owners only.
//
// @Summary      Reload the user directory
// @Tags         directory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  directoryRefreshResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/directory/refresh [post]
func (h *DirectoryHandler) Refresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), directoryRefreshTimeout)
	defer cancel()

	if err := h.directory.Refresh(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, directoryRefreshResponse{
		Users:   len(h.directory.All()),
		Owners:  len(h.directory.Owners()),
		BuiltAt: h.directory.BuiltAt(),
	})
}
