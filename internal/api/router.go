package api

import (
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/leadbook/crm-system/docs"
	"github.com/leadbook/crm-system/internal/api/handler"
	"github.com/leadbook/crm-system/internal/api/middleware"
	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/infrastructure/session"
)

// Deps are the wired components the HTTP layer serves.
type Deps struct {
	Authenticator ports.Authenticator
	AuthService   ports.AuthService
	Notifications ports.NotificationService
	Reminders     ports.ReminderScheduler
	Directory     ports.Directory
	Sessions      *session.Registry
	Queue         handler.EventQueue
	Readiness     map[string]handler.Pinger
	Heartbeat     time.Duration
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLog(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "crm",
		// long-lived streams would skew the latency histograms
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/v1/live") && c.Request().Method == "GET"
		},
	}))

	authHandler := handler.NewAuthHandler(d.AuthService)
	liveHandler := handler.NewLiveHandler(d.Sessions, d.Queue, d.Heartbeat, d.Log)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	reminderHandler := handler.NewReminderHandler(d.Reminders)
	directoryHandler := handler.NewDirectoryHandler(d.Directory)
	auth := middleware.Auth(d.Authenticator)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated API ---
	v1 := e.Group("/v1", auth)
	v1.GET("/live", liveHandler.Stream)
	v1.POST("/live/events/:event", liveHandler.Publish)
	v1.GET("/notifications", notificationHandler.List)
	v1.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
	v1.POST("/reminders", reminderHandler.Schedule)
	v1.GET("/reminders/:task_id", reminderHandler.Pending)
	v1.DELETE("/reminders/:task_id", reminderHandler.Cancel)
	v1.POST("/directory/refresh", directoryHandler.Refresh, middleware.RBAC(domain.RoleOwner))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Readiness, d.Sessions)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
