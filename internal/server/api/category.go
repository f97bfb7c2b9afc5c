package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

type CategoryHandlersParams struct {
	fx.In

	CategoryService *biz.CategoryService
}

func NewCategoryHandlers(params CategoryHandlersParams) *CategoryHandlers {
	return &CategoryHandlers{
		CategoryService: params.CategoryService,
	}
}

type CategoryHandlers struct {
	CategoryService *biz.CategoryService
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parentID"`
	Position    int    `json:"position"`
	Published   bool   `json:"published"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parentID"`
	Position    *int    `json:"position"`
	Published   *bool   `json:"published"`
}

// Tree returns the category hierarchy visible to the caller.
func (h *CategoryHandlers) Tree(c *gin.Context) {
	tree, err := h.CategoryService.CategoryTree(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"categories": tree})
}

// GetBySlug returns one category.
func (h *CategoryHandlers) GetBySlug(c *gin.Context) {
	info, err := h.CategoryService.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"category": info})
}

// Create creates a category.
func (h *CategoryHandlers) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	info, err := h.CategoryService.CreateCategory(c.Request.Context(), biz.CreateCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
		Position:    req.Position,
		Published:   req.Published,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"category": info})
}

// Update partially updates a category.
func (h *CategoryHandlers) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	info, err := h.CategoryService.UpdateCategory(c.Request.Context(), id, biz.UpdateCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
		Position:    req.Position,
		Published:   req.Published,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"category": info})
}

// Delete removes a category.
func (h *CategoryHandlers) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	if err := h.CategoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}

	return id, nil
}
