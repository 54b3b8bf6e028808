package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/cmd/web/di"
	ginrouter "profile-service/internal/adapter/gin/router"
	"profile-service/internal/config"
	"profile-service/pkg/logger"
)

// App is the profile web application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	HTTP      *http.Server
	Container *di.Container
}

// New creates a new application instance
func New() (*App, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName + "-web",
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.App.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return NewWithContainer(container)
}

// NewWithContainer builds the HTTP server around an initialized container.
func NewWithContainer(c *di.Container) (*App, error) {
	if c.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := ginrouter.SetupWebRouter(c.PageHandler, c.Config.Logger.ServiceName+"-web", c.Logger)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	return &App{
		Config: c.Config,
		Logger: c.Logger,
		HTTP: &http.Server{
			Addr:              ":" + c.Config.App.WebPort,
			Handler:           router,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       10 * time.Second,
			// a save waits on the remote API
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Container: c,
	}, nil
}

// Restore loads the mirrored profile so the session survives a restart. A
// mirror that cannot be read leaves the application without a profile.
func (a *App) Restore(ctx context.Context) {
	if err := a.Container.ProfileUC.Restore(ctx); err != nil {
		a.Logger.Warn("failed to restore profile, starting without one", zap.Error(err))
	}
}

// Run restores the session, serves the pages and blocks until ctx is canceled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting profile web application",
		zap.String("address", a.HTTP.Addr),
		zap.String("remote", a.Config.Remote.BaseURL),
		zap.String("mirror_driver", a.Config.Mirror.Driver),
		zap.String("environment", a.Config.App.Env),
	)

	a.Restore(ctx)

	errChan := make(chan error, 1)
	go func() {
		if err := a.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down application...")
		return a.shutdown()
	case err := <-errChan:
		_ = a.shutdown()
		return err
	}
}

func (a *App) shutdown() error {
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("failed to shutdown HTTP server", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := a.Container.Close(); err != nil {
		a.Logger.Error("failed to close container", zap.Error(err))
		errs = append(errs, fmt.Errorf("container close: %w", err))
	}

	a.Logger.Info("application shutdown complete")
	if err := a.Logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
		errs = append(errs, fmt.Errorf("logger sync: %w", err))
	}

	return errors.Join(errs...)
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
