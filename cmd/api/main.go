package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/twilio/twilio-go/client"

	"github.com/MrJamesThe3rd/billbot/internal/assistant"
	"github.com/MrJamesThe3rd/billbot/internal/auth"
	"github.com/MrJamesThe3rd/billbot/internal/billing"
	billingStore "github.com/MrJamesThe3rd/billbot/internal/billing/store"
	"github.com/MrJamesThe3rd/billbot/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/billbot/internal/catalog/store"
	"github.com/MrJamesThe3rd/billbot/internal/config"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
	conversationStore "github.com/MrJamesThe3rd/billbot/internal/conversation/store"
	"github.com/MrJamesThe3rd/billbot/internal/database"
	"github.com/MrJamesThe3rd/billbot/internal/events"
	billbotHttp "github.com/MrJamesThe3rd/billbot/internal/http"
	authHandler "github.com/MrJamesThe3rd/billbot/internal/http/auth"
	billingHandler "github.com/MrJamesThe3rd/billbot/internal/http/billing"
	projectHandler "github.com/MrJamesThe3rd/billbot/internal/http/project"
	"github.com/MrJamesThe3rd/billbot/internal/http/webhook"
	"github.com/MrJamesThe3rd/billbot/internal/logging"
	"github.com/MrJamesThe3rd/billbot/internal/mail"
	"github.com/MrJamesThe3rd/billbot/internal/notify"
	"github.com/MrJamesThe3rd/billbot/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	publisher, err := events.Connect(events.Config{
		URL:     cfg.NATS.URL,
		Subject: cfg.NATS.Subject,
		Token:   cfg.NATS.Token,
	})
	if err != nil {
		slog.Warn("nats unavailable, completion events disabled", "error", err)

		publisher = events.Noop()
	}
	defer publisher.Close()

	var (
		catalogService = catalog.NewService(catalogStore.New(db))
		billingService = billing.NewService(billingStore.New(db))
		authService    = auth.NewService(cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.Auth.Secret, cfg.Auth.Expiration)
	)

	notifier := notify.NewTwilio(notify.Config{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.From,
		MockMode:   cfg.Twilio.MockMode,
	})

	mailer := mail.New(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		MockMode: cfg.Mail.MockMode,
	})

	assistantService := assistant.NewService(
		conversationStore.New(db),
		conversation.NewEngine(catalogService, cfg.Billing.Recipient),
		mailer,
		notifier,
		publisher,
	)

	if cfg.Scheduler.Enabled {
		sched, err := newScheduler(cfg, assistantService)
		if err != nil {
			slog.Error("failed to configure scheduler", "error", err)
			os.Exit(1)
		}

		if err := sched.Start(ctx); err != nil {
			slog.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	webhookCfg := webhook.Config{
		ServiceName: cfg.App.Name,
		PublicURL:   cfg.Twilio.PublicURL,
		RateLimit:   cfg.RateLimit.Requests,
		RateWindow:  cfg.RateLimit.Window,
	}

	if cfg.Twilio.ValidateSig {
		validator := client.NewRequestValidator(cfg.Twilio.AuthToken)
		webhookCfg.Validator = &validator
	}

	router := billbotHttp.New(
		webhook.NewHandler(assistantService, webhookCfg),
		authHandler.NewHandler(authService),
		projectHandler.NewHandler(catalogService),
		billingHandler.NewHandler(billingService),
		authService,
		cfg.Server.CORSOrigins,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting server", "port", server.Addr, "name", cfg.App.Name)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
}

func newScheduler(cfg *config.Config, sessions scheduler.Sessions) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	return scheduler.New(sessions, scheduler.Config{
		SessionTimeout: cfg.Session.Timeout,
		ResetOnStartup: cfg.Session.ResetOnStartup,
		AdminIdentity:  cfg.Admin.Phone,
		Location:       loc,
	}), nil
}
