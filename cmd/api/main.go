package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/Wrecage/KamicoContactRelay/internal/api"
	"github.com/Wrecage/KamicoContactRelay/internal/config"
	"github.com/Wrecage/KamicoContactRelay/internal/crypto"
	"github.com/Wrecage/KamicoContactRelay/internal/mailer"
	"github.com/Wrecage/KamicoContactRelay/internal/ratelimit"
	"github.com/Wrecage/KamicoContactRelay/internal/storage"
	"github.com/Wrecage/KamicoContactRelay/internal/tenant"
	"github.com/Wrecage/KamicoContactRelay/pkg/logger"
)

func main() {
	// Errors are masked: in production these files don't exist and config
	// comes from system env vars.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	log := logger.Setup(env)
	log.Info("application_startup", "env", env)

	// Configuration is validated eagerly; missing required values abort
	// startup instead of degrading at request time.
	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration_invalid", "error", err)
		os.Exit(1)
	}
	cfg.LogSummary(log)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
			Environment:      cfg.Env,
		})
		if err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	ctx := context.Background()
	pool, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	store := storage.NewPostgresStore(pool)

	cipher, err := crypto.NewSecretCipher(cfg.MailSecretKey)
	if err != nil {
		log.Error("mail_secret_key_invalid", "error", err)
		os.Exit(1)
	}

	resolver := tenant.NewResolver(store)
	limiter := ratelimit.NewWindow(cfg.MaxRequestsPerHour, cfg.RateWindow)
	deliverer := mailer.NewSMTPMailer(cipher)

	server := api.NewServer(resolver, store, limiter, deliverer, store, true)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second, // SMTP delivery happens inside the request
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("server_listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)

		// Long enough for an in-flight SMTP transaction to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			if err := srv.Close(); err != nil {
				log.Error("server_force_close_failed", "error", err)
			}
		}

		pool.Close()
		log.Info("database_pool_closed")
		log.Info("server_shutdown_complete")
	}
}
