package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"profile-service/internal/adapter/cache"
	"profile-service/internal/adapter/db/postgres"
	ginhandler "profile-service/internal/adapter/gin/handler"
	grpcadapter "profile-service/internal/adapter/grpc"
	"profile-service/internal/adapter/grpc/middleware"
	"profile-service/internal/adapter/repository/cached"
	"profile-service/internal/config"
	"profile-service/internal/infrastructure"
	"profile-service/internal/usecase/record"
	redisclient "profile-service/pkg/redis"
)

const healthCheckInterval = 15 * time.Second

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	DB             *gorm.DB
	RedisClient    *redisclient.Client
	RecordUC       *record.Usecase
	RateLimiter    *middleware.RateLimiter
	Health         *grpcadapter.HealthChecker
	ProfileHandler *ginhandler.ProfileHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.ValidateAPI(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	c := &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
	}

	dbRepo := postgres.NewRecordRepoPG(db, l)
	if err := dbRepo.Migrate(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// The cache is an interface; leave it nil rather than a typed nil pointer
	// when Redis is off.
	var recordCache cache.RecordCache
	if rdb != nil {
		recordCache = cache.NewRedisRecordCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	repo := cached.NewCachedRecordRepository(dbRepo, recordCache, l)
	c.RecordUC = record.New(repo, l)
	c.ProfileHandler = ginhandler.NewProfileHandler(c.RecordUC, l)

	c.Health = grpcadapter.NewHealthChecker(healthCheckInterval, l)
	c.Health.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if rdb != nil {
		c.Health.AddCheck("redis", rdb.Check)
	}

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
