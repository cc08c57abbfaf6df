package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"exercise-tracker/internal/config"
	"exercise-tracker/internal/handlers"
	appmetrics "exercise-tracker/internal/metrics"
	"exercise-tracker/internal/middleware/ratelimit"
	"exercise-tracker/internal/services"
)

func main() {
	if err := newRootCmd(run).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(runServer func(context.Context, *config.Config) error) *cobra.Command {
	var (
		port        string
		storeDriver string
		dsn         string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:           "exercise-tracker",
		Short:         "Exercise tracking REST API",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// Flags override env and file settings only when given.
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("store") {
				cfg.StoreDriver = storeDriver
				if !flags.Changed("dsn") {
					cfg.DSN = ""
				}
			}
			if flags.Changed("dsn") {
				cfg.DSN = dsn
			}
			if flags.Changed("strict") {
				cfg.StrictValidation = strict
			}
			if cfg.DSN == "" {
				cfg.DSN = config.DefaultDSN(cfg.StoreDriver)
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (env PORT)")
	cmd.Flags().StringVar(&storeDriver, "store", "", "store backend: memory, mysql, postgres, sqlite3, mongo (env STORE_DRIVER)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "store connection string (env DSN)")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject malformed duration, date and log filters (env STRICT_VALIDATION)")
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize backends
	deps, err := openDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}
	defer deps.Close(logger)

	// Initialize services
	userService := services.NewUserService(deps.store, deps.userCache, logger)
	exerciseService := services.NewExerciseService(deps.store, userService, deps.publisher, cfg.StrictValidation, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appmetrics.MustRegister(registry)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmetrics.Middleware())

	if cfg.RateLimitPerMinute > 0 {
		rateLimiter := ratelimit.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		defer rateLimiter.Stop()
		e.Use(ratelimit.Middleware(rateLimiter))
	}

	// Routes
	h := handlers.NewHandler(userService, exerciseService, deps.store, deps.userCache, logger)
	h.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Start server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("strict_validation", cfg.StrictValidation))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server exited")
	return nil
}
