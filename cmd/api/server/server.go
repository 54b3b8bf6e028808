package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	ginhandler "profile-service/internal/adapter/gin/handler"
	ginrouter "profile-service/internal/adapter/gin/router"
	grpcadapter "profile-service/internal/adapter/grpc"
	"profile-service/internal/adapter/grpc/middleware"
	"profile-service/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Gin    *http.Server
}

// New creates a new server instance
func New(
	cfg *config.Config,
	l *zap.Logger,
	profileHandler *ginhandler.ProfileHandler,
	rateLimiter *middleware.RateLimiter,
	health *grpcadapter.HealthChecker,
) *Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := ginrouter.APIOptions{
		ServiceName:    cfg.Logger.ServiceName,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	}

	return &Server{
		Config: cfg,
		Logger: l,
		GRPC:   SetupGRPC(health, rateLimiter, l),
		Gin:    SetupGinServer(profileHandler, rateLimiter, opts, ":"+cfg.App.APIPort, l),
	}
}

// Start starts the gRPC and Gin servers and blocks until one of them stops.
// A server stopped through shutdown is not an error.
func (s *Server) Start() error {
	errCh := make(chan error, 2)

	go func() {
		if err := s.startGRPC(); err != nil {
			errCh <- fmt.Errorf("failed to start gRPC server: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start Gin server: %w", err)
			return
		}
		errCh <- nil
	}()

	return <-errCh
}

// startGRPC starts the gRPC server
func (s *Server) startGRPC() error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", s.grpcAddress())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
	return s.GRPC.Serve(lis)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
