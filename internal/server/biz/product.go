package biz

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

const defaultPageSize = 20

type ProductServiceParams struct {
	fx.In

	DB *db.DB
}

func NewProductService(params ProductServiceParams) *ProductService {
	return &ProductService{db: params.DB}
}

type ProductService struct {
	db *db.DB
}

type CreateProductInput struct {
	Name        string
	Slug        string
	CategoryID  int64
	Summary     string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Published   bool
}

type UpdateProductInput struct {
	Name        *string
	Slug        *string
	CategoryID  *int64
	Summary     *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Published   *bool
}

// ListProductsInput filters and pages a product listing.
type ListProductsInput struct {
	CategorySlug string
	Page         int
	PerPage      int
}

func (in CreateProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "must not be empty")
	}

	if in.CategoryID <= 0 {
		return invalid("categoryID", "must reference a category")
	}

	if in.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}

	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*objects.ProductInfo, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)

	if input.Slug == "" {
		input.Slug = Slugify(input.Name)
	} else if input.Slug != Slugify(input.Slug) {
		return nil, invalid("slug", "must contain only lowercase letters, digits and dashes")
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.ProductInfo, error) {
		return scanProduct(tx.QueryRowContext(ctx,
			`INSERT INTO products (slug, category_id, name, summary, description, price, image_url, published)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, slug, category_id, name, summary, description, price, image_url, published, created_at, updated_at`,
			input.Slug, input.CategoryID, input.Name, input.Summary, input.Description,
			input.Price.String(), input.ImageURL, input.Published,
		))
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*objects.ProductInfo, error) {
	if input.Slug != nil {
		if *input.Slug == "" || *input.Slug != Slugify(*input.Slug) {
			return nil, invalid("slug", "must contain only lowercase letters, digits and dashes")
		}
	}

	if input.Price != nil && input.Price.IsNegative() {
		return nil, invalid("price", "must not be negative")
	}

	var price *string
	if input.Price != nil {
		p := input.Price.String()
		price = &p
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.ProductInfo, error) {
		return scanProduct(tx.QueryRowContext(ctx,
			`UPDATE products SET
				name        = COALESCE($2, name),
				slug        = COALESCE($3, slug),
				category_id = COALESCE($4, category_id),
				summary     = COALESCE($5, summary),
				description = COALESCE($6, description),
				price       = COALESCE($7, price),
				image_url   = COALESCE($8, image_url),
				published   = COALESCE($9, published),
				updated_at  = now()
			 WHERE id = $1
			 RETURNING id, slug, category_id, name, summary, description, price, image_url, published, created_at, updated_at`,
			id, input.Name, input.Slug, input.CategoryID, input.Summary, input.Description,
			price, input.ImageURL, input.Published,
		))
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	ident, _ := contexts.GetIdentity(ctx)

	err := s.db.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
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

	return nil
}

func (s *ProductService) GetProductBySlug(ctx context.Context, productSlug string) (*objects.ProductInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.ProductInfo, error) {
		return scanProduct(tx.QueryRowContext(ctx,
			`SELECT id, slug, category_id, name, summary, description, price, image_url, published, created_at, updated_at
			 FROM products WHERE slug = $1`,
			productSlug,
		))
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

// ListProducts returns one page of products visible to the caller, optionally
// restricted to a category. Count and page are read in the same transaction
// so they agree with each other.
func (s *ProductService) ListProducts(ctx context.Context, input ListProductsInput) (*objects.ProductPage, error) {
	if input.Page <= 0 {
		input.Page = 1
	}

	if input.PerPage <= 0 || input.PerPage > 100 {
		input.PerPage = defaultPageSize
	}

	ident, _ := contexts.GetIdentity(ctx)

	page, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.ProductPage, error) {
		page := &objects.ProductPage{Page: input.Page, PerPage: input.PerPage}

		var (
			where string
			args  []any
		)

		if input.CategorySlug != "" {
			where = `WHERE p.category_id = (SELECT id FROM categories WHERE slug = $1)`
			args = append(args, input.CategorySlug)
		}

		countQuery := fmt.Sprintf(`SELECT count(*) FROM products p %s`, where)
		if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&page.TotalCount); err != nil {
			return nil, fmt.Errorf("count products: %w", err)
		}

		listQuery := fmt.Sprintf(
			`SELECT p.id, p.slug, p.category_id, p.name, p.summary, p.description, p.price, p.image_url, p.published, p.created_at, p.updated_at
			 FROM products p %s
			 ORDER BY p.created_at DESC, p.id DESC
			 LIMIT $%d OFFSET $%d`,
			where, len(args)+1, len(args)+2,
		)
		args = append(args, input.PerPage, (input.Page-1)*input.PerPage)

		rows, err := tx.QueryContext(ctx, listQuery, args...)
		if err != nil {
			return nil, fmt.Errorf("select products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			info, err := scanProductRow(rows)
			if err != nil {
				return nil, err
			}

			page.Items = append(page.Items, *info)
		}

		return page, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row *sql.Row) (*objects.ProductInfo, error) {
	return scanProductRow(row)
}

func scanProductRow(row rowScanner) (*objects.ProductInfo, error) {
	var (
		p     objects.ProductInfo
		price string
	)

	err := row.Scan(&p.ID, &p.Slug, &p.CategoryID, &p.Name, &p.Summary, &p.Description,
		&price, &p.ImageURL, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}

	return &p, nil
}
