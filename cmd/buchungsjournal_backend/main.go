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

	"github.com/SscSPs/buchungsjournal/internal/adapters/messaging/kafka"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/SscSPs/buchungsjournal/internal/core/services"
	"github.com/SscSPs/buchungsjournal/internal/handlers"
	"github.com/SscSPs/buchungsjournal/internal/middleware"
	"github.com/SscSPs/buchungsjournal/internal/platform/config"
	"github.com/SscSPs/buchungsjournal/internal/platform/storage"
	"github.com/SscSPs/buchungsjournal/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server shutdown completed with errors", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server shutdown completed successfully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	repos, err := storage.OpenRepositories(appCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	var publisher portssvc.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewJournalEventProducer(logger, cfg.KafkaBrokers, cfg.KafkaLedgerTopic)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		publisher = producer
		logger.Info("Kafka event publishing enabled", slog.String("topic", cfg.KafkaLedgerTopic))
	}

	serviceContainer, err := services.NewServiceContainer(appCtx, repos, publisher)
	if err != nil {
		return err
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("invalid rate limit: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewHTTPMetrics(registry)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		metrics.Middleware(),
		middleware.RateLimit(rateLimiter),
		middleware.PosthogMiddleware(posthogClient),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, metrics)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Create error channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serverErr error
	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case serverErr = <-errChan:
		logger.Error("Server error occurred", slog.String("error", serverErr.Error()))
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	logger.Info("Starting graceful shutdown...")

	var shutdownErrs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrs = append(shutdownErrs, fmt.Errorf("http server: %w", err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			shutdownErrs = append(shutdownErrs, err)
		}
	}
	if repos.Close != nil {
		if err := repos.Close(shutdownCtx); err != nil {
			shutdownErrs = append(shutdownErrs, err)
		}
	}

	return errors.Join(append([]error{serverErr}, shutdownErrs...)...)
}
