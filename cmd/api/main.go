package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpAdapter "github.com/lorrc/support-desk/internal/adapters/primary/http"
	mw "github.com/lorrc/support-desk/internal/adapters/primary/http/middleware"
	"github.com/lorrc/support-desk/internal/adapters/primary/websocket"
	"github.com/lorrc/support-desk/internal/auth"
	"github.com/lorrc/support-desk/internal/config"
	"github.com/lorrc/support-desk/internal/core/services"
	"github.com/lorrc/support-desk/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"agents", cfg.Desk.Agents,
	)

	// 3. Initialize Security & Real-time Components
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// 4. Initialize Rate Limiters
	var generalRateLimiter, dispatchRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalConfig := mw.DefaultRateLimiterConfig()
		generalConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		generalConfig.BurstSize = cfg.RateLimit.BurstSize
		generalRateLimiter = mw.NewRateLimiter(generalConfig, mw.ByClientIP)
		defer generalRateLimiter.Stop()

		dispatchConfig := mw.DispatchRateLimiterConfig()
		dispatchConfig.RequestsPerSecond = cfg.RateLimit.DispatchRPS
		dispatchConfig.BurstSize = cfg.RateLimit.DispatchBurst
		dispatchRateLimiter = mw.NewRateLimiter(dispatchConfig, mw.ByOperator)
		defer dispatchRateLimiter.Stop()
	}

	// 5. Dependency Injection (Wiring the Hexagon)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	deskService, err := services.NewDeskService(services.DeskConfig{
		Agents:               cfg.Desk.Agents,
		MaxDescriptionLength: cfg.Desk.MaxDescriptionLength,
	}, hub, logger)
	if err != nil {
		logger.Error("failed to initialize desk", "error", err)
		os.Exit(1)
	}

	ticketHandler := httpAdapter.NewTicketHandler(deskService, errorHandler, logger, cfg.Desk.MaxDescriptionLength)
	deskHandler := httpAdapter.NewDeskHandler(deskService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(deskService, hub, cfg.App.Version)

	// 6. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Route("/tickets", ticketHandler.RegisterRoutes)

			var dispatchLimit func(http.Handler) http.Handler
			if dispatchRateLimiter != nil {
				dispatchLimit = dispatchRateLimiter.Middleware
			}
			deskHandler.RegisterRoutes(r, dispatchLimit)
		})
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Close websocket clients first; hijacked connections are not tracked
	// by Shutdown.
	stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
