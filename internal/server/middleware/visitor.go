package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mercatohq/mercato/internal/contexts"
)

const visitorIDHeader = "X-Visitor-ID"

// WithVisitorID propagates the anonymous visitor id the frontend assigns, for
// visit tracking. Absence is fine; not every caller is a browser.
func WithVisitorID() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := c.GetHeader(visitorIDHeader)
		if visitorID == "" {
			if cookie, err := c.Cookie("visitor_id"); err == nil {
				visitorID = cookie
			}
		}

		if visitorID != "" {
			ctx := contexts.WithVisitorID(c.Request.Context(), visitorID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
