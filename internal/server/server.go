// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the one place where the store, handlers, and
// middleware get wired together. main.go stays minimal (read config, build
// logger, call New + Start), and nothing outside this package knows the route
// table.
//
// STATE LIFECYCLE:
// The store is created here, once, and handed to the handlers by reference.
// All state is process-lifetime only — there is no database and no file
// behind it, so a restart starts from an empty store. That is the intended
// behavior, not an omission.
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

	"github.com/girishsaivarma/WebForm/internal/handler"
	"github.com/girishsaivarma/WebForm/internal/middleware"
	"github.com/girishsaivarma/WebForm/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port           int
	RateLimitRPS   float64 // sustained requests per second across all clients
	RateLimitBurst int     // token bucket size
}

// Server owns the router and the in-memory store.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  *store.Store
}

// New creates a Server with all routes wired.
//
// DEPENDENCY CHAIN:
//
//	store.New → UserHandler / PostHandler → routes
//
// The handlers receive the store directly; there is no service layer in
// between because the store is the single component owning validation,
// authorization, and state (one lock, one critical section per operation).
func New(cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store.New(logger),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE TABLE:
//
//	POST   /register                  → register a user, returns {id, key}
//	GET    /user/{identifier}         → user by numeric id or username
//	PUT    /user/{id}                 → update name/username (key-authorized)
//	POST   /post                      → create a post, returns record incl. key
//	GET    /post/{id}                 → post minus key
//	DELETE /post/{id}/delete/{key}    → delete a post (key-authorized)
//	GET    /posts?start=&end=         → posts in inclusive timestamp range
//	GET    /posts/user/{username}     → posts by attributed username snapshot
//	GET    /posts/search?query=       → case-insensitive regex search over msg
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can pick the id out of the context; the
// rate limiter runs after logging so rejected requests still get a log line.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RealIP)    // real client IP from proxy headers
	s.router.Use(chimiddleware.Recoverer) // panics become 500s, not crashes
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))

	userHandler := handler.NewUserHandler(s.store, s.logger)
	postHandler := handler.NewPostHandler(s.store, s.logger)

	s.router.Post("/register", userHandler.HandleRegister)
	s.router.Get("/user/{identifier}", userHandler.HandleGet)
	s.router.Put("/user/{id:[0-9]+}", userHandler.HandleUpdate)

	s.router.Post("/post", postHandler.HandleCreate)
	s.router.Get("/post/{id:[0-9]+}", postHandler.HandleGet)
	s.router.Delete("/post/{id:[0-9]+}/delete/{key}", postHandler.HandleDelete)

	s.router.Get("/posts", postHandler.HandleRange)
	s.router.Get("/posts/user/{username}", postHandler.HandleByUsername)
	s.router.Get("/posts/search", postHandler.HandleSearch)
}

// Handler exposes the router as an http.Handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds before returning. There is nothing to flush
// on shutdown — the store is volatile by design.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
