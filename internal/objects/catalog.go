package objects

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryInfo struct {
	ID          int64          `json:"id"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ParentID    *int64         `json:"parentID,omitempty"`
	Position    int            `json:"position"`
	Published   bool           `json:"published"`
	Children    []CategoryInfo `json:"children,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ProductInfo struct {
	ID          int64           `json:"id"`
	Slug        string          `json:"slug"`
	CategoryID  int64           `json:"categoryID"`
	Name        string          `json:"name"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageURL"`
	Published   bool            `json:"published"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items      []ProductInfo `json:"items"`
	TotalCount int64         `json:"totalCount"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
}

// ImportReport summarises a CSV product import.
type ImportReport struct {
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}
