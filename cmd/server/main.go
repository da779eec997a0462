// Command server runs the X&ME backend API: the public expert directory,
// contact requests, the assistant chat relay, the credit-gated research
// wizard, billing, and document uploads.
//
// Configuration is environment-driven (see internal/config). A .env file is
// honored in development. External collaborators (Stripe, the identity
// provider, the assistant backend, S3, Redis) are all optional at startup;
// endpoints that need an unconfigured collaborator answer 503 instead of
// taking the whole process down.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/assistant"
	"github.com/xandme/xandme-backend/internal/cache"
	"github.com/xandme/xandme-backend/internal/config"
	httpapi "github.com/xandme/xandme-backend/internal/http"
	"github.com/xandme/xandme-backend/internal/observability"
	"github.com/xandme/xandme-backend/internal/repo"
	"github.com/xandme/xandme-backend/internal/services"
	"github.com/xandme/xandme-backend/internal/storage"
	"github.com/xandme/xandme-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title        X&ME Backend API
// @version      1.0
// @description  Expert directory, contact requests, assistant chats, research wizard, billing and documents.
// @BasePath     /api/v1
func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", "xandme-backend").Str("version", version).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (optional)
	if cfg.OTEL.Enabled {
		shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			logger.Fatal().Err(err).Msg("otel setup failed")
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn().Err(err).Msg("otel shutdown")
			}
		}()
	}

	// Database: Postgres in production, SQLite for dev and tests.
	var (
		db  *gorm.DB
		err error
	)
	if cfg.DSN != "" {
		db, err = repo.OpenPostgres(cfg.DSN)
	} else {
		db, err = repo.OpenSQLite(cfg.SQLitePath)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	deps := httpapi.Dependencies{Log: logger}

	// Directory cache (optional)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, directory cache disabled")
		} else {
			deps.Cache = cache.New(rdb, time.Minute, logger)
		}
	}

	// Assistant backend (optional)
	if cfg.Assistant.URL != "" {
		deps.Assistant = assistant.New(cfg.Assistant.URL, cfg.Assistant.APIKey, cfg.Assistant.Timeout, logger)
	} else {
		logger.Warn().Msg("ASSISTANT_URL not set, chat and research endpoints degraded")
	}

	// Payments (optional)
	if cfg.Stripe.APIKey != "" {
		deps.Gateway = services.NewStripeGateway(cfg.Stripe.APIKey, cfg.Stripe.PriceID, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	}
	if cfg.Stripe.WebhookSecret != "" {
		deps.Stripe = services.StripeVerifier(cfg.Stripe.WebhookSecret)
	}

	// Identity webhooks (optional)
	if cfg.SvixSecret != "" {
		wh, err := svix.NewWebhook(cfg.SvixSecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("svix webhook init")
		}
		deps.Identity = wh
	}

	// Object storage (optional)
	if cfg.S3.Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.Options{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("s3 setup failed")
		}
		deps.Objects = store
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
