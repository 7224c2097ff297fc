// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkpress/inkpress/internal/admin"
	"github.com/inkpress/inkpress/internal/article"
	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/authz"
	"github.com/inkpress/inkpress/internal/complaint"
	"github.com/inkpress/inkpress/internal/platform/config"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/middleware"
	"github.com/inkpress/inkpress/internal/session"
)

//go:embed static/inkpress.css
var stylesheet []byte

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the account lifecycle (signup, verify, login, recovery).
	Auth *auth.Handler

	// Article handles publishing and reading.
	Article *article.Handler

	// Complaint handles member complaint filing.
	Complaint *complaint.Handler

	// Admin handles the moderation dashboard.
	Admin *admin.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// Route areas and their gates:
//   - /auth      : public (session loaded, no gate)
//   - /articles  : members; administrators are redirected to /admin
//   - /complaints: members; administrators are redirected to /admin
//   - /admin     : administrators only
//   - /uploads   : public streaming of stored media
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, sessions *session.Manager, gate *authz.Gate, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(sessions.Load())
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	r.Get("/static/inkpress.css", serveStylesheet)
	r.Get("/uploads/*", h.Article.ServeUpload)

	// # Application Routes
	r.Get("/", func(writer http.ResponseWriter, request *http.Request) {
		http.Redirect(writer, request, constants.RouteArticles, http.StatusSeeOther)
	})

	r.Mount("/auth", h.Auth.Routes())

	r.Group(func(member chi.Router) {
		member.Use(gate.RequireAuth())
		member.Use(gate.BlockAdminFromUserRoutes())
		member.Mount("/articles", h.Article.Routes())
		member.Mount("/complaints", h.Complaint.Routes())
	})

	r.Group(func(adminArea chi.Router) {
		adminArea.Use(gate.RequireAdmin())
		adminArea.Mount("/admin", h.Admin.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

func serveStylesheet(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/css; charset=utf-8")
	writer.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = writer.Write(stylesheet)
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
