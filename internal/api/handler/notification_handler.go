package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
)

// NotificationHandler serves the pull and read-state endpoints.
type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type notificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Count         int                   `json:"count"`
}

type markReadResponse struct {
	Updated bool `json:"updated"`
}

// List handles GET /v1/notifications: the caller's notifications, newest first.
//
// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread"
// @Param        limit   query     int   false  "Max results (default 50, max 200)"
// @Success      200     {object}  notificationListResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	filter := ports.ListNotificationsFilter{UserID: id.ID}
	if v := c.QueryParam("unread"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unread must be a boolean")
		}
		filter.UnreadOnly = unread
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}

	items, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return c.JSON(http.StatusOK, notificationListResponse{Notifications: items, Count: len(items)})
}

// MarkRead handles PATCH /v1/notifications/:id/read: flips the caller's read
// flag. Repeated calls are harmless; a caller who is not a target gets
// updated=false.
//
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  markReadResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	updated, err := h.service.MarkRead(c.Request().Context(), c.Param("id"), id.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, markReadResponse{Updated: updated})
}
