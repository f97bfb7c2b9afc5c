package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/server/biz"
)

type SitemapHandlersParams struct {
	fx.In

	SitemapService *biz.SitemapService
}

func NewSitemapHandlers(params SitemapHandlersParams) *SitemapHandlers {
	return &SitemapHandlers{
		SitemapService: params.SitemapService,
	}
}

type SitemapHandlers struct {
	SitemapService *biz.SitemapService
}

// Sitemap serves the XML sitemap of published content.
func (h *SitemapHandlers) Sitemap(c *gin.Context) {
	body, err := h.SitemapService.Generate(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}
