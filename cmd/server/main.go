// LapakChat - storefront support chat relay server
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

	"github.com/aditpras/lapakchat/internal/api"
	"github.com/aditpras/lapakchat/internal/bot"
	"github.com/aditpras/lapakchat/internal/config"
	"github.com/aditpras/lapakchat/internal/knowledge"
	"github.com/aditpras/lapakchat/internal/middleware"
	"github.com/aditpras/lapakchat/internal/relay"
	"github.com/aditpras/lapakchat/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting relay", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// The knowledge base is a startup requirement: the bot cannot run
	// without it, so a bad resource is fatal.
	entries, err := knowledge.Load(cfg.KnowledgePath)
	if err != nil {
		slog.Error("Failed to load knowledge base", "error", err)
		os.Exit(1)
	}
	slog.Info("Knowledge base loaded", "entries", len(entries))

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Initialize services.
	matcher := knowledge.NewMatcher(entries, cfg.FuzzyThreshold, cfg.FuzzyMaxDistance)
	responder := bot.NewResponder(matcher, repo, entries)
	registry := relay.NewRegistry(bot.Welcome)
	router := relay.NewRouter(registry, responder, cfg.EscalationTimeout)
	defer router.Close()

	// Initialize handlers.
	chatHandler := api.NewHandler(router, registry)
	healthHandler := api.NewHealthHandler(repo, registry, router)
	wsHandler := api.NewWebSocketHandler(registry, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	healthHandler.RegisterHealth(r)
	chatHandler.RegisterRoutes(r)

	// JoinChat streaming endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Create server.
	// WriteTimeout stays 0: the chat stream is a long-lived push
	// connection and must not be cut by the server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
