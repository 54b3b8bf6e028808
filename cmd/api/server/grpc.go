package server

import (
	"go.uber.org/zap"
	grpc "google.golang.org/grpc"

	grpcadapter "profile-service/internal/adapter/grpc"
	"profile-service/internal/adapter/grpc/middleware"
	"profile-service/pkg/logger"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(health *grpcadapter.HealthChecker, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	// Create gRPC server with request ID and rate limit interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)
	health.Register(grpcServer)

	l.Info("gRPC health service registered", zap.String("service", grpcadapter.ServiceName))

	return grpcServer
}
