package biz

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

// importColumns is the required CSV header, in any order.
var importColumns = []string{"category_slug", "name", "price", "slug", "summary", "description", "image_url", "published"}

// requiredImportColumns must be present; the rest default to empty.
var requiredImportColumns = []string{"category_slug", "name", "price"}

const maxImportRows = 5000

type ImporterServiceParams struct {
	fx.In

	DB *db.DB
}

func NewImporterService(params ImporterServiceParams) *ImporterService {
	return &ImporterService{db: params.DB}
}

type ImporterService struct {
	db *db.DB
}

type importRow struct {
	line         int
	categorySlug string
	name         string
	slug         string
	summary      string
	description  string
	price        decimal.Decimal
	imageURL     string
	published    bool
}

// ImportProducts loads products from a CSV stream. All inserts run in one
// transaction: rows that fail validation are reported per line, but a storage
// failure rolls the whole import back.
func (s *ImporterService) ImportProducts(ctx context.Context, r io.Reader) (*objects.ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, invalid("file", "must start with a header row")
	}

	index := lo.SliceToMap(header, func(col string) (string, int) {
		return strings.ToLower(strings.TrimSpace(col)), lo.IndexOf(header, col)
	})

	missing := lo.Filter(requiredImportColumns, func(col string, _ int) bool {
		_, ok := index[col]
		return !ok
	})
	if len(missing) > 0 {
		return nil, invalid("file", "missing columns: "+strings.Join(missing, ", "))
	}

	report := &objects.ImportReport{}

	var rows []importRow

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, objects.ImportRowError{Line: line, Reason: "malformed row"})

			continue
		}

		if line-1 > maxImportRows {
			return nil, invalid("file", fmt.Sprintf("must not exceed %d rows", maxImportRows))
		}

		row, reason := parseImportRow(index, record, line)
		if reason != "" {
			report.Failed++
			report.Errors = append(report.Errors, objects.ImportRowError{Line: line, Reason: reason})

			continue
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return report, nil
	}

	ident, _ := contexts.GetIdentity(ctx)

	err = s.db.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO products (slug, category_id, name, summary, description, price, image_url, published)
			 SELECT $1, c.id, $3, $4, $5, $6, $7, $8 FROM categories c WHERE c.slug = $2`,
		)
		if err != nil {
			return fmt.Errorf("prepare import insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			result, err := stmt.ExecContext(ctx,
				row.slug, row.categorySlug, row.name, row.summary, row.description,
				row.price.String(), row.imageURL, row.published,
			)
			if err != nil {
				return fmt.Errorf("import line %d: %w", row.line, err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}

			if affected == 0 {
				return invalid("file", fmt.Sprintf("line %d: unknown category %q", row.line, row.categorySlug))
			}

			report.Imported++
		}

		return nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	log.Info(ctx, "products imported",
		log.Int("imported", report.Imported),
		log.Int("failed", report.Failed))

	return report, nil
}

func parseImportRow(index map[string]int, record []string, line int) (importRow, string) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	row := importRow{
		line:         line,
		categorySlug: field("category_slug"),
		name:         field("name"),
		slug:         field("slug"),
		summary:      field("summary"),
		description:  field("description"),
		imageURL:     field("image_url"),
	}

	if row.categorySlug == "" {
		return row, "category_slug must not be empty"
	}

	if row.name == "" {
		return row, "name must not be empty"
	}

	price, err := decimal.NewFromString(field("price"))
	if err != nil || price.IsNegative() {
		return row, "price must be a non-negative decimal"
	}

	row.price = price

	if row.slug == "" {
		row.slug = Slugify(row.name)
	} else if row.slug != Slugify(row.slug) {
		return row, "slug must contain only lowercase letters, digits and dashes"
	}

	if published := field("published"); published != "" {
		value, err := strconv.ParseBool(published)
		if err != nil {
			return row, "published must be true or false"
		}

		row.published = value
	}

	return row, ""
}
