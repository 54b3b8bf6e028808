package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/adapter/gin/handler"
	"profile-service/internal/adapter/gin/middleware"
	"profile-service/internal/adapter/gin/view"
	grpcmiddleware "profile-service/internal/adapter/grpc/middleware"
	"profile-service/pkg/logger"
)

// APIOptions configures the remote profile API router.
type APIOptions struct {
	ServiceName    string
	AllowedOrigins []string // empty or "*" allows any origin
}

// SetupAPIRouter configures and returns the Gin router for the profile collection API
func SetupAPIRouter(
	profileHandler *handler.ProfileHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	opts APIOptions,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log, nil))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	router.Use(middleware.RateLimiter(rateLimiter, log))

	router.GET("/health", health(opts.ServiceName))

	v1 := router.Group("/v1")
	{
		profiles := v1.Group("/profiles")
		{
			profiles.GET("", profileHandler.ListProfiles)
			profiles.POST("", profileHandler.CreateProfile)
			profiles.GET("/:id", profileHandler.GetProfile)
			profiles.PUT("/:id", profileHandler.ReplaceProfile)
			profiles.DELETE("/:id", profileHandler.DeleteProfile)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{Error: "not_found", Message: "route not found"})
	})

	return router
}

// SetupWebRouter configures and returns the Gin router serving the profile pages
func SetupWebRouter(pages *handler.PageHandler, serviceName string, log *zap.Logger) (*gin.Engine, error) {
	tmpl, err := view.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	router.Use(middleware.Recovery(log, pages.InternalError))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	router.GET("/health", health(serviceName))

	router.GET(handler.PathHome, pages.Home)
	router.GET(handler.PathForm, pages.ShowForm)
	router.POST(handler.PathForm, pages.SubmitForm)
	router.GET(handler.PathProfile, pages.ShowProfile)
	router.POST(handler.PathDelete, pages.RequestDelete)
	router.POST(handler.PathDeleteConfirm, pages.ConfirmDelete)
	router.POST(handler.PathLogout, pages.Logout)

	router.NoRoute(pages.NotFound)

	return router, nil
}

func health(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
