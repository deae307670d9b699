// Package app assembles the donor matching and SMS dispatch services from
// configuration. Both the API server and the operator CLI build on it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kursadbilgin/donor-dispatch/internal/config"
	"github.com/kursadbilgin/donor-dispatch/internal/infra/postgresql"
	infraredis "github.com/kursadbilgin/donor-dispatch/internal/infra/redis"
	"github.com/kursadbilgin/donor-dispatch/internal/observability"
	"github.com/kursadbilgin/donor-dispatch/internal/provider"
	"github.com/kursadbilgin/donor-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/donor-dispatch/internal/repository"
	"github.com/kursadbilgin/donor-dispatch/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	DB    *gorm.DB
	SQLDB *sql.DB
	// Redis is nil when REDIS_URL is not configured.
	Redis   *redis.Client
	Metrics *observability.Metrics

	Donors     *repository.GormDonorRepo
	Dispatches *repository.GormDispatchRecordRepo

	Matcher    *service.MatchService
	Dispatcher *service.BulkDispatcher
	Notifier   *service.NotifyService

	logger *zap.Logger
}

// New connects to postgres (and redis when configured) and wires the services.
// It does not run migrations.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres initialization failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres underlying db init failed: %w", err)
	}

	a := &App{
		DB:      db,
		SQLDB:   sqlDB,
		Metrics: observability.NewMetrics(),
		logger:  logger,
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis initialization failed: %w", err)
		}
		a.Redis = rdb
	}

	if err := a.wire(cfg); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) wire(cfg *config.Config) error {
	a.Donors = repository.NewGormDonorRepo(a.DB)
	a.Dispatches = repository.NewGormDispatchRecordRepo(a.DB)

	matcher, err := service.NewMatchService(a.Donors, a.logger.Named("match"))
	if err != nil {
		return err
	}
	matcher.SetMetrics(a.Metrics)

	limiter, err := NewRateLimiter(a.Redis, cfg.SMSRateLimitPerSec)
	if err != nil {
		return err
	}

	sms := provider.NewFromConfig(cfg.ProviderConfig(), a.logger.Named("provider"))
	dispatcher, err := service.NewBulkDispatcher(sms, limiter, cfg.SMSEnabled, cfg.BatchTimeout(), a.logger.Named("dispatcher"))
	if err != nil {
		return err
	}
	dispatcher.SetMetrics(a.Metrics)

	notifier, err := service.NewNotifyService(dispatcher, matcher, a.Dispatches, cfg.SMSMaxRecipients, a.logger.Named("notify"))
	if err != nil {
		return err
	}
	notifier.SetMetrics(a.Metrics)

	a.Matcher = matcher
	a.Dispatcher = dispatcher
	a.Notifier = notifier

	a.logger.Info("sms dispatch configured",
		zap.String("provider", sms.Name()),
		zap.Bool("ready", sms.Ready()),
		zap.Bool("enabled", cfg.SMSEnabled),
		zap.Bool("distributedRateLimit", a.Redis != nil),
	)

	return nil
}

// NewRateLimiter prefers the shared redis limiter and falls back to an
// in-process one. A non-positive rate disables limiting.
func NewRateLimiter(rdb *redis.Client, limitPerSec int) (ratelimit.RateLimiter, error) {
	if limitPerSec <= 0 {
		return nil, nil
	}
	if rdb == nil {
		return ratelimit.NewLocalRateLimiter(limitPerSec), nil
	}

	limiter, err := infraredis.NewRedisRateLimiter(rdb, limitPerSec)
	if err != nil {
		return nil, err
	}
	return limiter, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.SQLDB != nil {
		if err := a.SQLDB.Close(); err != nil {
			a.logger.Warn("failed to close postgres", zap.Error(err))
		}
	}
}
