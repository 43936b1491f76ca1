package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/FACorreiaa/go-todo-api/app/logger"
	appMiddleware "github.com/FACorreiaa/go-todo-api/app/middleware"
	"github.com/FACorreiaa/go-todo-api/app/observability/metrics"
	"github.com/FACorreiaa/go-todo-api/app/tracer"
	"github.com/FACorreiaa/go-todo-api/config"
	"github.com/FACorreiaa/go-todo-api/internal/api/auth"
	"github.com/FACorreiaa/go-todo-api/internal/container"
	"github.com/FACorreiaa/go-todo-api/internal/router"
)

const shutdownTimeout = 10 * time.Second

// @title                      Go Todo API
// @version                    1.0
// @description                Authenticated per-user todo list service.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the token.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.New(cfg.Mode, os.Stdout)
	slog.SetDefault(logger)

	if err = run(cfg, logger); err != nil {
		logger.Error("Application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	telemetry, err := tracer.InitTracingAndMetrics("go-todo-api")
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	metrics.InitAppMetrics()

	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}

	timeout := requestTimeout(&cfg)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      newHTTPHandler(&cfg, c, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.MetricsHandler)
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Handlers.Prometheus.Port),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(apiServer, "api", logger) })
	if cfg.Handlers.Prometheus.Port != "" {
		g.Go(func() error { return serve(metricsServer, "metrics", logger) })
	}
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		errs := []error{apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx)}
		c.Close(shutdownCtx)
		errs = append(errs, telemetry.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}

func serve(srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("Starting HTTP server", slog.String("server", name), slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// newHTTPHandler assembles the server-wide middleware stack around the routes.
func newHTTPHandler(cfg *config.Config, c *container.Container, logger *slog.Logger) http.Handler {
	timeout := requestTimeout(cfg)

	mainRouter := router.SetupRouter(&router.Config{
		AuthHandler:            c.AuthHandler,
		TodoHandler:            c.TodoHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, c.AuthService),
		AllowedOrigins:         cfg.CORS.AllowedOrigins,
		AuthRequestsPerMinute:  cfg.RateLimit.AuthRequestsPerMinute,
	})

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(appMiddleware.SecurityHeaders)
	r.Use(appMiddleware.Metrics)
	r.Use(middleware.Timeout(timeout))
	r.Mount("/", mainRouter)
	return r
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.Timeout <= 0 {
		return 60 * time.Second
	}
	return cfg.Server.Timeout
}
