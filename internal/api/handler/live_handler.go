package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/infrastructure/session"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
	"github.com/leadbook/crm-system/pkg/logger"
)

const (
	defaultHeartbeat = 25 * time.Second
	enqueueTimeout   = 2 * time.Second

	notificationEvent = "receiveNotification"
)

// EventQueue is the interface the handler uses to hand off client events.
type EventQueue interface {
	Enqueue(ctx context.Context, in ports.LiveEventInput) error
}

// SessionRegistry opens and closes live sessions.
type SessionRegistry interface {
	Connect(userID string) *session.Session
	Disconnect(userID, sessionID string)
}

// LiveHandler serves the server-sent event stream and accepts client events.
type LiveHandler struct {
	sessions  SessionRegistry
	queue     EventQueue
	heartbeat time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewLiveHandler(sessions SessionRegistry, queue EventQueue, heartbeat time.Duration, log zerolog.Logger) *LiveHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &LiveHandler{
		sessions:  sessions,
		queue:     queue,
		heartbeat: heartbeat,
		now:       time.Now,
		log:       log,
	}
}

// Stream handles GET /v1/live: holds an SSE stream open and writes every
// notification pushed to the caller's session.
//
// @Summary      Open the live notification stream
// @Tags         live
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        token  query  string  false  "Bearer token when headers cannot be set"
// @Success      200
// @Failure      401   {object}  errorResponse
// @Router       /v1/live [get]
func (h *LiveHandler) Stream(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	s := h.sessions.Connect(id.ID)
	defer h.sessions.Disconnect(id.ID, s.ID)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(res, ": session %s\n\n", s.ID); err != nil {
		return nil
	}
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.Done():
			return nil
		case n := <-s.Outbox():
			if err := writeNotification(res, n); err != nil {
				l := logger.From(ctx, h.log)
				l.Debug().Err(err).Str("user_id", id.ID).Msg("live stream write failed")
				return nil
			}
			res.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeNotification(res *echo.Response, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(res, "id: %s\nevent: %s\ndata: %s\n\n", n.ID, notificationEvent, data)
	return err
}

// Publish handles POST /v1/live/events/:event: validates a client event and
// queues it for fan-out, returns 202.
//
// @Summary      Emit a client event
// @Tags         live
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        event  path      string  true  "Event name (newLead, addFollowup, leadProductAssigned, editLead, addTask, editTask, editFollowup, newProduct, editProduct, newUser, editUser)"
// @Success      202    {object}  acceptedResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Failure      503    {object}  errorResponse
// @Router       /v1/live/events/{event} [post]
func (h *LiveHandler) Publish(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	name := domain.EventName(c.Param("event"))
	schema, ok := liveEventSchemas[name]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown event")
	}

	req := schema()
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), enqueueTimeout)
	defer cancel()

	in := ports.LiveEventInput{Actor: id, Event: req.toEvent(), ReceivedAt: h.now()}
	if err := h.queue.Enqueue(ctx, in); err != nil {
		l := logger.From(c.Request().Context(), h.log)
		l.Warn().Err(err).Str("event", string(name)).Msg("live event queue saturated")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event queue busy")
	}

	metrics.LiveEventsTotal.WithLabelValues(string(name)).Inc()
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "event accepted", Event: string(name)})
}
