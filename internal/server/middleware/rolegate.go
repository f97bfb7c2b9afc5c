package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
)

// RequireCapability rejects callers whose role does not grant the capability.
// The check runs before any transaction is opened, so denied requests never
// touch the database. An unknown capability is a programming error and fails
// the request rather than silently allowing or denying it.
func RequireCapability(capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, _ := contexts.GetIdentity(c.Request.Context())

		allowed, err := authz.Allowed(capability, ident)
		if err != nil {
			log.Error(c.Request.Context(), "capability check failed",
				log.String("capability", string(capability)),
				log.Cause(err))

			AbortWithError(c, http.StatusInternalServerError, objects.ErrCodeServerError, err)

			return
		}

		if !allowed {
			AbortWithError(c, http.StatusForbidden, objects.ErrCodeForbidden,
				fmt.Errorf("role %s may not %s", authz.RoleOf(ident), capability))

			return
		}

		c.Next()
	}
}
