package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mercatohq/mercato/internal/contexts"
)

const requestIDHeader = "X-Request-ID"

// WithRequestID tags each request with an id for log correlation. A caller
// supplied id is kept so ids can follow a request across services.
func WithRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := contexts.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}
