package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

var errMalformedAuthHeader = errors.New("authorization header must be a bearer token")

// WithAuth resolves the caller identity from the Authorization header.
//
// No header means the request proceeds as an anonymous guest. A header that is
// present but does not verify is rejected with 401: a bad credential is never
// downgraded to anonymous.
func WithAuth(auth *biz.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			AbortWithError(c, http.StatusUnauthorized, objects.ErrCodeInvalidToken, errMalformedAuthHeader)
			return
		}

		ident, err := auth.ResolveIdentity(token)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, objects.ErrCodeInvalidToken, err)
			return
		}

		ctx := contexts.WithIdentity(c.Request.Context(), ident)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
