package di

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	ginhandler "profile-service/internal/adapter/gin/handler"
	"profile-service/internal/adapter/memory"
	"profile-service/internal/adapter/mirror"
	"profile-service/internal/adapter/remote"
	"profile-service/internal/config"
	"profile-service/internal/infrastructure"
	"profile-service/internal/usecase/profile"
	redisclient "profile-service/pkg/redis"
)

// Container holds all dependencies of the profile web application
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	ProfileUC   *profile.Usecase
	PageHandler *ginhandler.PageHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.ValidateWeb(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: l,
	}

	m, err := c.newMirror()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize mirror: %w", err)
	}

	client := remote.NewClient(remote.Config{
		BaseURL:    cfg.Remote.BaseURL,
		Timeout:    time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
		MatchEmail: cfg.Remote.MatchEmail,
	}, l)

	fv, err := profile.NewFormValidator(cfg.Validation.EmailDomain)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize form validator: %w", err)
	}

	c.ProfileUC = profile.New(client, memory.NewProfileStore(), m, fv, l)
	c.PageHandler = ginhandler.NewPageHandler(c.ProfileUC, l)

	return c, nil
}

func (c *Container) newMirror() (profile.Mirror, error) {
	cfg := c.Config
	log := c.Logger.With(zap.String("mirror_driver", cfg.Mirror.Driver))

	if cfg.Mirror.Driver == config.MirrorDriverRedis {
		rdb, err := infrastructure.NewRedisClient(cfg, log)
		if err != nil {
			return nil, err
		}
		c.RedisClient = rdb
		return mirror.NewRedisMirror(rdb.Client, cfg.Mirror.Key, log), nil
	}

	db, err := infrastructure.NewMirrorDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	c.DB = db

	sqlMirror, err := mirror.NewSQLMirror(db, cfg.Mirror.Key, log)
	if err != nil {
		return nil, err
	}
	return sqlMirror, nil
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
