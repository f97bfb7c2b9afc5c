package biz

import (
	"context"
	"database/sql"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/server/db"
)

type SitemapConfig struct {
	// SiteURL is the public origin the sitemap entries point at.
	SiteURL string `conf:"site_url" yaml:"site_url" json:"site_url"`
}

type SitemapServiceParams struct {
	fx.In

	Config SitemapConfig
	DB     *db.DB
}

func NewSitemapService(params SitemapServiceParams) *SitemapService {
	return &SitemapService{
		siteURL: strings.TrimRight(params.Config.SiteURL, "/"),
		db:      params.DB,
	}
}

type SitemapService struct {
	siteURL string
	db      *db.DB
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapDoc struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapEntry struct {
	prefix    string
	slug      string
	updatedAt time.Time
}

// Generate renders the sitemap for all published content. It always runs with
// an anonymous identity so visibility matches what a crawler would see.
func (s *SitemapService) Generate(ctx context.Context) ([]byte, error) {
	entries, err := db.Run(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) ([]sitemapEntry, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT '/categories/' AS prefix, slug, updated_at FROM categories WHERE published
			 UNION ALL
			 SELECT '/products/', slug, updated_at FROM products WHERE published
			 UNION ALL
			 SELECT '/blog/', slug, updated_at FROM posts WHERE published
			 ORDER BY prefix, slug`,
		)
		if err != nil {
			return nil, fmt.Errorf("select sitemap entries: %w", err)
		}
		defer rows.Close()

		var out []sitemapEntry

		for rows.Next() {
			var e sitemapEntry
			if err := rows.Scan(&e.prefix, &e.slug, &e.updatedAt); err != nil {
				return nil, err
			}

			out = append(out, e)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	doc := sitemapDoc{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: append(
			[]sitemapURL{{Loc: s.siteURL + "/"}},
			lo.Map(entries, func(e sitemapEntry, _ int) sitemapURL {
				return sitemapURL{
					Loc:     s.siteURL + e.prefix + e.slug,
					LastMod: e.updatedAt.UTC().Format("2006-01-02"),
				}
			})...,
		),
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}
