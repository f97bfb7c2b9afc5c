package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/build"
	"github.com/mercatohq/mercato/internal/server/db"
)

type SystemHandlersParams struct {
	fx.In

	DB *db.DB
}

func NewSystemHandlers(params SystemHandlersParams) *SystemHandlers {
	return &SystemHandlers{
		DB: params.DB,
	}
}

type SystemHandlers struct {
	DB *db.DB
}

// Health reports liveness plus build and pool information.
func (h *SystemHandlers) Health(c *gin.Context) {
	stats := h.DB.Stats()

	JSONOK(c, http.StatusOK, gin.H{
		"status":  "healthy",
		"version": build.Version,
		"db": gin.H{
			"openConnections": stats.OpenConnections,
			"inUse":           stats.InUse,
			"idle":            stats.Idle,
		},
	})
}
