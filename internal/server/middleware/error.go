package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mercatohq/mercato/internal/objects"
)

// AbortWithError aborts the request with the JSON error envelope and records
// the error on the gin context for access logging.
func AbortWithError(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, objects.ErrorResponse{
		OK:     false,
		Error:  code,
		Detail: err.Error(),
	})
}
