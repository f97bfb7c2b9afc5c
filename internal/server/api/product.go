package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

type ProductHandlersParams struct {
	fx.In

	ProductService  *biz.ProductService
	ImporterService *biz.ImporterService
}

func NewProductHandlers(params ProductHandlersParams) *ProductHandlers {
	return &ProductHandlers{
		ProductService:  params.ProductService,
		ImporterService: params.ImporterService,
	}
}

type ProductHandlers struct {
	ProductService  *biz.ProductService
	ImporterService *biz.ImporterService
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	CategoryID  int64           `json:"categoryID"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageURL"`
	Published   bool            `json:"published"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Slug        *string          `json:"slug"`
	CategoryID  *int64           `json:"categoryID"`
	Summary     *string          `json:"summary"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageURL"`
	Published   *bool            `json:"published"`
}

// List returns one page of products, optionally filtered by category slug.
func (h *ProductHandlers) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("perPage"))

	result, err := h.ProductService.ListProducts(c.Request.Context(), biz.ListProductsInput{
		CategorySlug: c.Query("category"),
		Page:         page,
		PerPage:      perPage,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{
		"items":      result.Items,
		"totalCount": result.TotalCount,
		"page":       result.Page,
		"perPage":    result.PerPage,
	})
}

// GetBySlug returns one product.
func (h *ProductHandlers) GetBySlug(c *gin.Context) {
	info, err := h.ProductService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"product": info})
}

// Create creates a product.
func (h *ProductHandlers) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	info, err := h.ProductService.CreateProduct(c.Request.Context(), biz.CreateProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		CategoryID:  req.CategoryID,
		Summary:     req.Summary,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Published:   req.Published,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"product": info})
}

// Update partially updates a product.
func (h *ProductHandlers) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	info, err := h.ProductService.UpdateProduct(c.Request.Context(), id, biz.UpdateProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		CategoryID:  req.CategoryID,
		Summary:     req.Summary,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Published:   req.Published,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"product": info})
}

// Delete removes a product.
func (h *ProductHandlers) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	if err := h.ProductService.DeleteProduct(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{})
}

// Import loads products from an uploaded CSV file.
func (h *ProductHandlers) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("file field is required"))
		return
	}
	defer file.Close()

	report, err := h.ImporterService.ImportProducts(c.Request.Context(), file)
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"report": report})
}
