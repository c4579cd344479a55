package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadbook/crm-system/internal/api"
	"github.com/leadbook/crm-system/internal/api/handler"
	"github.com/leadbook/crm-system/internal/core/service"
	"github.com/leadbook/crm-system/internal/infrastructure/config"
	"github.com/leadbook/crm-system/internal/infrastructure/db/mongo"
	"github.com/leadbook/crm-system/internal/infrastructure/db/redis"
	"github.com/leadbook/crm-system/internal/infrastructure/directory"
	"github.com/leadbook/crm-system/internal/infrastructure/mail"
	"github.com/leadbook/crm-system/internal/infrastructure/queue"
	"github.com/leadbook/crm-system/internal/infrastructure/session"
	"github.com/leadbook/crm-system/pkg/logger"
)

const (
	serviceName     = "crm-notifications"
	shutdownTimeout = 15 * time.Second
)

// @title                       CRM Notification API
// @version                     1.0
// @description                 Live notification fan-out and task reminder scheduling for the CRM.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("service stopped with error")
	}
	log.Info().Msg("service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	userRepo := mongo.NewUserRepository(db)
	crmRepo := mongo.NewCRMRepository(db)
	notificationRepo := mongo.NewNotificationRepository(db)
	if err := notificationRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	// Directory
	dir := directory.New(userRepo, logger.Component("directory"))
	if err := dir.Refresh(ctx); err != nil {
		return err
	}
	go dir.Run(ctx, cfg.Directory.RefreshInterval)

	// Live delivery: service -> bus -> dispatcher -> sessions
	registry := session.NewRegistry(cfg.Live.OutboxSize, logger.Component("sessions"))
	dispatcher := service.NewDispatcher(registry, logger.Component("dispatcher"))
	bus := queue.NewNotificationBus(logger.Component("bus"))
	go bus.Run(ctx, dispatcher)

	notifications := service.NewNotificationService(notificationRepo, crmRepo, dir, bus, logger.Component("notifications"))
	events := queue.NewEventQueue(cfg.EventWorkers, notifications, logger.Component("events"))
	events.Start(ctx)

	// Reminders
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	scheduler := service.NewReminderScheduler(userRepo, crmRepo, mailer, redis.NewReminderDedup(rdb), service.ReminderConfig{
		Policy:      service.ParseEditPolicy(cfg.Reminder.EditPolicy),
		SendTimeout: cfg.SMTP.Timeout,
	}, logger.Component("reminders"))

	e := api.NewRouter(api.Deps{
		Authenticator: service.NewIdentity(cfg.JWTSecret),
		AuthService:   service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL),
		Notifications: notifications,
		Reminders:     scheduler,
		Directory:     dir,
		Sessions:      registry,
		Queue:         events,
		Readiness: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
		},
		Heartbeat: cfg.Live.Heartbeat,
		Log:       logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Closing sessions first lets open streams return so Shutdown does not wait on them.
	registry.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http graceful shutdown failed")
	}
	scheduler.Shutdown()
	return nil
}
