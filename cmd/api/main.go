package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kursadbilgin/donor-dispatch/internal/app"
	"github.com/kursadbilgin/donor-dispatch/internal/config"
	"github.com/kursadbilgin/donor-dispatch/internal/handler"
	"github.com/kursadbilgin/donor-dispatch/internal/infra/postgresql/migrations"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
	"github.com/kursadbilgin/donor-dispatch/internal/service"
	"github.com/kursadbilgin/donor-dispatch/internal/transport"
	"go.uber.org/zap"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LoggerOptions())
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("donor-dispatch api stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	a, err := app.New(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := migrations.Migrate(a.DB); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	server := fiber.New(fiber.Config{
		AppName:               "donor-dispatch",
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger.Named("http")),
	})
	server.Use(fiberrecover.New())
	server.Use(transport.CorrelationID())
	server.Use(a.Metrics.HTTPMiddleware())
	server.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	handler.RegisterHealthRoutes(server, a.SQLDB, a.Redis)
	if err := handler.RegisterDonorRoutes(server, a.Matcher); err != nil {
		return err
	}
	if err := handler.RegisterNotificationRoutes(server, a.Notifier, a.Dispatches); err != nil {
		return err
	}

	if interval := cfg.PriorityRefreshInterval(); interval > 0 {
		refresher, err := service.NewPriorityRefresher(a.Matcher, interval, logger.Named("priority"))
		if err != nil {
			return err
		}
		go func() {
			_ = refresher.Start(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	}()

	logger.Info("donor-dispatch api started", zap.Int("port", cfg.APIPort))

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	if err := server.ShutdownWithTimeout(cfg.ShutdownTimeout()); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	return nil
}
