package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadbook/crm-system/internal/core/ports"
)

// ReminderHandler lets the task service register and retract reminders.
type ReminderHandler struct {
	scheduler ports.ReminderScheduler
}

func NewReminderHandler(scheduler ports.ReminderScheduler) *ReminderHandler {
	return &ReminderHandler{scheduler: scheduler}
}

// Schedule handles POST /v1/reminders: registers one job per email reminder
// whose time is still ahead, returns 202 with the counts.
//
// @Summary      Schedule task reminders
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      scheduleRemindersRequest  true  "Task and reminders"
// @Success      202   {object}  ports.ScheduleResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/reminders [post]
func (h *ReminderHandler) Schedule(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}

	var req scheduleRemindersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res := h.scheduler.Schedule(c.Request().Context(), toTaskReminder(req))
	return c.JSON(http.StatusAccepted, res)
}

// Cancel handles DELETE /v1/reminders/:task_id: stops the task's pending jobs.
//
// @Summary      Cancel pending reminders of a task
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        task_id  path      string  true  "Task ID"
// @Success      200      {object}  cancelRemindersResponse
// @Failure      401      {object}  errorResponse
// @Router       /v1/reminders/{task_id} [delete]
func (h *ReminderHandler) Cancel(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}

	n := h.scheduler.Cancel(c.Param("task_id"))
	return c.JSON(http.StatusOK, cancelRemindersResponse{Cancelled: n})
}

// Pending handles GET /v1/reminders/:task_id.
//
// @Summary      List pending reminders of a task
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        task_id  path      string  true  "Task ID"
// @Success      200      {array}   ports.JobView
// @Failure      401      {object}  errorResponse
// @Router       /v1/reminders/{task_id} [get]
func (h *ReminderHandler) Pending(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.scheduler.Pending(c.Param("task_id")))
}
