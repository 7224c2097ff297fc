// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Command api is the entry point for the Inkpress HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Run database migrations (idempotent).
//  5. Pick the session store (Redis, or in-memory for development).
//  6. Pick the mailer and blob storage backends.
//  7. Wire domain services and HTTP handlers; bootstrap the admin account.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkpress/inkpress/internal/admin"
	"github.com/inkpress/inkpress/internal/api"
	"github.com/inkpress/inkpress/internal/article"
	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/authz"
	"github.com/inkpress/inkpress/internal/complaint"
	"github.com/inkpress/inkpress/internal/platform/config"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/mailer"
	"github.com/inkpress/inkpress/internal/platform/migration"
	pgstore "github.com/inkpress/inkpress/internal/platform/postgres"
	redisstore "github.com/inkpress/inkpress/internal/platform/redis"
	"github.com/inkpress/inkpress/internal/platform/storage"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "inkpress"))
	slog.SetDefault(log)

	log.Info("[Inkpress] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "inkpress"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Session Store ──────────────────────────────────────────────────
	// Redis is the production backend; the in-memory store keeps local
	// development dependency-free at the cost of sessions dying on restart.
	var sessionStore session.Store
	var checkSessionStore func() error

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		sessionStore = session.NewRedisStore(rdb)
		checkSessionStore = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	} else {
		log.Warn("REDIS_URL not set; using in-memory session store")
		sessionStore = session.NewMemoryStore()
	}

	sessions := session.NewManager(sessionStore, log, cfg.IsProduction())

	// ── 6. Mailer ─────────────────────────────────────────────────────────
	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, log)
	} else {
		log.Warn("SMTP_HOST not set; outbound mail goes to the log")
		mail = mailer.NewLog(log)
	}

	// ── 7. Blob Storage ───────────────────────────────────────────────────
	var blobs storage.Storage
	if cfg.S3Bucket != "" {
		blobs, err = storage.NewS3(startupCtx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3Key,
			SecretKey: cfg.S3Secret,
		}, log)
		must(log, err, "connect to object storage")
	} else {
		log.Warn("S3_BUCKET not set; storing uploads on local disk",
			slog.String("dir", cfg.UploadDir))
		blobs, err = storage.NewDisk(cfg.UploadDir)
		must(log, err, "prepare upload directory")
	}

	// ── 8. Views ──────────────────────────────────────────────────────────
	renderer, err := web.NewRenderer(log)
	must(log, err, "parse templates")

	// ── 9. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckSessionStore: checkSessionStore,
	}, log)

	// ── 10. Domain Wiring ─────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	articleRepository := article.NewArticleRepository(pool)
	complaintRepository := complaint.NewComplaintRepository(pool)

	authService := auth.NewService(userRepository, mail, log, cfg.BaseURL, cfg.MailFrom)
	articleService := article.NewService(articleRepository, blobs, log)
	complaintService := complaint.NewService(complaintRepository, articleService, log)
	adminService := admin.NewService(userRepository, articleRepository, complaintService, log)

	must(log, authService.BootstrapAdmin(startupCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword),
		"bootstrap admin account")

	gate := authz.NewGate(userRepository, sessions, renderer)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, sessions, renderer),
		Article:   article.NewHandler(articleService, sessions, renderer),
		Complaint: complaint.NewHandler(complaintService, sessions, renderer),
		Admin:     admin.NewHandler(adminService, sessions, renderer),
	}

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, sessions, gate, handlers)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
