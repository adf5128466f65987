package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"campus-api/internal/config"
	"campus-api/internal/container"
	"campus-api/internal/handler"
	"campus-api/internal/middleware"
	"campus-api/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.log.Info("Starting graceful shutdown...")

	var firstErr error

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			firstErr = fmt.Errorf("HTTP server shutdown: %w", err)
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.container != nil {
		// Quick health probe before closing, with a short timeout.
		healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := r.container.Store.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Store health check failed before closing")
		}
		cancel()

		r.container.Close()
		r.log.Info("Store and cache connections closed")
	}

	if firstErr == nil {
		r.log.Info("Graceful shutdown completed successfully")
	}
	return firstErr
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":          cfg.Port,
		"log_level":     cfg.LogLevel,
		"environment":   cfg.Environment,
		"store_backend": cfg.StoreBackend,
	}).Info("Starting campus-api server")

	// Create dependency injection container
	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	// Serve until signalled
	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Shutdown completed with errors")
		os.Exit(1)
	}
}

func setupRouter(c *container.Container, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = c.Config.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Create handlers
	healthHandler := handler.NewHealthHandler(c)
	authHandler := handler.NewAuthHandler(c.OAuthFlow, log)
	electionHandler := handler.NewElectionHandler(c.Services.Election, log)
	bookingHandler := handler.NewBookingHandler(c.Services.Booking, log)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	// Google sign-in flow (no auth required)
	authHandler.RegisterRoutes(r)

	// All workflow endpoints require an authenticated caller; the
	// role policy inside the services gates each mutation.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(c.Services.Auth, log))

		r.Get("/me", authHandler.Profile)
		electionHandler.RegisterRoutes(r)
		bookingHandler.RegisterRoutes(r)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
