package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
)

var errInternal = errors.New("internal server error")

// Recovery converts handler panics into a 500 envelope instead of tearing the
// connection down.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered",
					log.Any("panic", r),
					log.String("stack", string(debug.Stack())))

				AbortWithError(c, http.StatusInternalServerError, objects.ErrCodeServerError, errInternal)
			}
		}()

		c.Next()
	}
}
