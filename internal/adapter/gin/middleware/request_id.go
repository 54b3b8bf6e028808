package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"profile-service/pkg/logger"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// RequestID ensures every request has a request id. An incoming X-Request-Id
// header is reused, otherwise a new one is generated. The id is stored in the
// gin context and the request context, and echoed in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(logger.RequestIDHeader))
		if rid == "" {
			rid = logger.NewRequestID()
		}

		c.Set(RequestIDKey, rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Writer.Header().Set(logger.RequestIDHeader, rid)

		c.Next()
	}
}
