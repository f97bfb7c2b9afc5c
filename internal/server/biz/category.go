package biz

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

const categoryTreeCacheKey = "category-tree:anonymous"

type CategoryServiceParams struct {
	fx.In

	DB *db.DB
}

func NewCategoryService(params CategoryServiceParams) *CategoryService {
	return &CategoryService{
		db:    params.DB,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

type CategoryService struct {
	db *db.DB

	// cache holds the anonymous category tree only. Results for
	// authenticated callers depend on the row policies and are never cached.
	cache *gocache.Cache
}

type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    *int64
	Position    int
	Published   bool
}

type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	ParentID    *int64
	Position    *int
	Published   *bool
}

// Slugify derives a URL slug from a name.
func Slugify(name string) string {
	return slug.Make(name)
}

// CreateCategory inserts a category, deriving the slug from the name when
// none is supplied.
func (s *CategoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*objects.CategoryInfo, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, invalid("name", "must not be empty")
	}

	if input.Slug == "" {
		input.Slug = Slugify(input.Name)
	} else if input.Slug != Slugify(input.Slug) {
		return nil, invalid("slug", "must contain only lowercase letters, digits and dashes")
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.CategoryInfo, error) {
		var c objects.CategoryInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO categories (slug, name, description, parent_id, position, published)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, slug, name, description, parent_id, position, published, created_at, updated_at`,
			input.Slug, input.Name, input.Description, input.ParentID, input.Position, input.Published,
		).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ParentID, &c.Position, &c.Published, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert category: %w", err)
		}

		return &c, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	s.cache.Delete(categoryTreeCacheKey)

	return info, nil
}

// UpdateCategory applies a partial update. A zero-row update means the
// category does not exist or is invisible under the current row policy; the
// two cases are reported identically as ErrNotFound.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, input UpdateCategoryInput) (*objects.CategoryInfo, error) {
	if input.Slug != nil {
		if *input.Slug == "" || *input.Slug != Slugify(*input.Slug) {
			return nil, invalid("slug", "must contain only lowercase letters, digits and dashes")
		}
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.CategoryInfo, error) {
		var c objects.CategoryInfo

		err := tx.QueryRowContext(ctx,
			`UPDATE categories SET
				name        = COALESCE($2, name),
				slug        = COALESCE($3, slug),
				description = COALESCE($4, description),
				parent_id   = COALESCE($5, parent_id),
				position    = COALESCE($6, position),
				published   = COALESCE($7, published),
				updated_at  = now()
			 WHERE id = $1
			 RETURNING id, slug, name, description, parent_id, position, published, created_at, updated_at`,
			id, input.Name, input.Slug, input.Description, input.ParentID, input.Position, input.Published,
		).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ParentID, &c.Position, &c.Published, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("update category: %w", err)
		}

		return &c, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	s.cache.Delete(categoryTreeCacheKey)

	return info, nil
}

// DeleteCategory removes a category and, via cascade, its products.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	ident, _ := contexts.GetIdentity(ctx)

	err := s.db.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return storeError(ctx, err)
	}

	s.cache.Delete(categoryTreeCacheKey)

	return nil
}

// GetCategoryBySlug returns one category visible to the caller.
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, categorySlug string) (*objects.CategoryInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.CategoryInfo, error) {
		var c objects.CategoryInfo

		err := tx.QueryRowContext(ctx,
			`SELECT id, slug, name, description, parent_id, position, published, created_at, updated_at
			 FROM categories WHERE slug = $1`,
			categorySlug,
		).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ParentID, &c.Position, &c.Published, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("select category: %w", err)
		}

		return &c, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

// CategoryTree returns the categories visible to the caller as a tree ordered
// by position. The anonymous tree is cached; authenticated results are not.
func (s *CategoryService) CategoryTree(ctx context.Context) ([]objects.CategoryInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	if ident == nil {
		if cached, ok := s.cache.Get(categoryTreeCacheKey); ok {
			return cached.([]objects.CategoryInfo), nil
		}
	}

	flat, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.CategoryInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, slug, name, description, parent_id, position, published, created_at, updated_at
			 FROM categories ORDER BY position, id`,
		)
		if err != nil {
			return nil, fmt.Errorf("select categories: %w", err)
		}
		defer rows.Close()

		var out []objects.CategoryInfo

		for rows.Next() {
			var c objects.CategoryInfo
			if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ParentID, &c.Position, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return nil, err
			}

			out = append(out, c)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	tree := buildCategoryTree(flat)

	if ident == nil {
		s.cache.SetDefault(categoryTreeCacheKey, tree)
	}

	return tree, nil
}

// buildCategoryTree nests children under parents, preserving the input
// order. A row whose parent is not visible to the caller is promoted to the
// root rather than dropped.
func buildCategoryTree(flat []objects.CategoryInfo) []objects.CategoryInfo {
	known := make(map[int64]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}

	const rootKey = int64(0)

	byParent := make(map[int64][]objects.CategoryInfo)

	for _, c := range flat {
		key := rootKey
		if c.ParentID != nil && known[*c.ParentID] {
			key = *c.ParentID
		}

		byParent[key] = append(byParent[key], c)
	}

	var attach func(parent int64) []objects.CategoryInfo

	attach = func(parent int64) []objects.CategoryInfo {
		nodes := byParent[parent]
		for i := range nodes {
			nodes[i].Children = attach(nodes[i].ID)
		}

		return nodes
	}

	return attach(rootKey)
}
