// Package server wires handlers, middleware, and routes into an HTTP server.
//
// This is the composition root: New assembles the whole dependency chain
// (database → repositories → services → handlers) in one place, and Start
// runs the server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/code-optimizer/internal/auth"
	"github.com/sakif/code-optimizer/internal/config"
	"github.com/sakif/code-optimizer/internal/handler"
	"github.com/sakif/code-optimizer/internal/llm"
	"github.com/sakif/code-optimizer/internal/middleware"
	sqliteRepo "github.com/sakif/code-optimizer/internal/repository/sqlite"
	"github.com/sakif/code-optimizer/internal/service"
)

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server, opening the database and wiring every dependency.
// The llm.Client is injected by the caller so tests can substitute a fake.
func New(cfg *config.Config, logger *slog.Logger, llmClient llm.Client) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(tokens, llmClient)

	return s, nil
}

// Handler exposes the router, primarily for httptest in integration tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself on
// shutdown; callers using Handler directly must call it.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware, builds the services and handlers, and
// registers every route. All routes except the health check, register,
// login, and the OAuth pair sit behind the bearer-token guard.
func (s *Server) setupRoutes(tokens *auth.TokenService, llmClient llm.Client) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.cfg.Server.AllowedOrigins))

	var github *auth.GitHubProvider
	if s.cfg.GitHub.ClientID != "" && s.cfg.GitHub.ClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.cfg.GitHub.ClientID,
			s.cfg.GitHub.ClientSecret,
			s.cfg.GitHub.CallbackURL,
		)
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	optimizeService := service.NewOptimizeService(llmClient, s.db, s.logger)
	historyService := service.NewHistoryService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	optimizeHandler := handler.NewOptimizeHandler(optimizeService, s.logger)
	historyHandler := handler.NewHistoryHandler(historyService, s.logger)

	// Liveness probe; no auth, plain text.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/user", authHandler.HandleProfile)
		r.Get("/profile", authHandler.HandleProfile)
		r.Post("/optimize", optimizeHandler.HandleOptimize)
		r.Get("/history", historyHandler.HandleList)
		r.Delete("/history/{id}", historyHandler.HandleDelete)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the optimize route blocks on the LLM round trip
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("database", s.cfg.Database.Path),
			slog.String("model", s.cfg.LLM.Model),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
