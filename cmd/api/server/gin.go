package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "profile-service/internal/adapter/gin/handler"
	ginrouter "profile-service/internal/adapter/gin/router"
	grpcmiddleware "profile-service/internal/adapter/grpc/middleware"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handler *ginhandler.ProfileHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	opts ginrouter.APIOptions,
	ginAddr string,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupAPIRouter(handler, rateLimiter, opts, l)

	l.Info("Gin REST API configured", zap.String("address", ginAddr))

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
