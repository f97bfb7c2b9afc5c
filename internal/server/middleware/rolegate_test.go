package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/contexts"
)

func gateRouter(capability authz.Capability, ident *authz.Identity) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)

	reached := new(bool)

	router := gin.New()

	if ident != nil {
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(contexts.WithIdentity(c.Request.Context(), ident))
			c.Next()
		})
	}

	router.POST("/probe", RequireCapability(capability), func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusCreated)
	})

	return router, reached
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name       string
		capability authz.Capability
		ident      *authz.Identity
		wantStatus int
	}{
		{
			name:       "guest denied catalog write",
			capability: authz.CapabilityCatalogWrite,
			ident:      nil,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "user denied catalog write",
			capability: authz.CapabilityCatalogWrite,
			ident:      &authz.Identity{SubjectID: "7", Role: authz.RoleUser},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "editor allowed catalog write",
			capability: authz.CapabilityCatalogWrite,
			ident:      &authz.Identity{SubjectID: "7", Role: authz.RoleEditor},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "editor denied push send",
			capability: authz.CapabilityPushSend,
			ident:      &authz.Identity{SubjectID: "7", Role: authz.RoleEditor},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin allowed push send",
			capability: authz.CapabilityPushSend,
			ident:      &authz.Identity{SubjectID: "1", Role: authz.RoleAdmin},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "guest allowed comments",
			capability: authz.CapabilityContentComment,
			ident:      nil,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown capability fails loud",
			capability: authz.Capability("no.such.capability"),
			ident:      &authz.Identity{SubjectID: "1", Role: authz.RoleAdmin},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, reached := gateRouter(tt.capability, tt.ident)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/probe", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusCreated, *reached)

			if tt.wantStatus == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), `"error":"forbidden"`)
			}
		})
	}
}
