package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

type PostHandlersParams struct {
	fx.In

	PostService *biz.PostService
}

func NewPostHandlers(params PostHandlersParams) *PostHandlers {
	return &PostHandlers{
		PostService: params.PostService,
	}
}

type PostHandlers struct {
	PostService *biz.PostService
}

type PostRequest struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Excerpt  string `json:"excerpt"`
	Body     string `json:"body"`
	CoverURL string `json:"coverURL"`
}

type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Slug     *string `json:"slug"`
	Excerpt  *string `json:"excerpt"`
	Body     *string `json:"body"`
	CoverURL *string `json:"coverURL"`
}

type PublishRequest struct {
	Published bool `json:"published"`
}

type CommentRequest struct {
	AuthorName string `json:"authorName"`
	Body       string `json:"body"`
}

// List returns the posts visible to the caller, newest first.
func (h *PostHandlers) List(c *gin.Context) {
	posts, err := h.PostService.ListPosts(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"posts": posts})
}

// GetBySlug returns one post with its approved comments.
func (h *PostHandlers) GetBySlug(c *gin.Context) {
	post, comments, err := h.PostService.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"post": post, "comments": comments})
}

// Create creates a draft post.
func (h *PostHandlers) Create(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	post, err := h.PostService.CreatePost(c.Request.Context(), biz.CreatePostInput{
		Title:    req.Title,
		Slug:     req.Slug,
		Excerpt:  req.Excerpt,
		Body:     req.Body,
		CoverURL: req.CoverURL,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"post": post})
}

// Update partially updates a post.
func (h *PostHandlers) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	post, err := h.PostService.UpdatePost(c.Request.Context(), id, biz.UpdatePostInput{
		Title:    req.Title,
		Slug:     req.Slug,
		Excerpt:  req.Excerpt,
		Body:     req.Body,
		CoverURL: req.CoverURL,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"post": post})
}

// SetPublished publishes or unpublishes a post.
func (h *PostHandlers) SetPublished(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	post, err := h.PostService.SetPostPublished(c.Request.Context(), id, req.Published)
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"post": post})
}

// Delete removes a post.
func (h *PostHandlers) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	if err := h.PostService.DeletePost(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{})
}

// AddComment submits a comment on a post. Comments await moderation.
func (h *PostHandlers) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("invalid request format"))
		return
	}

	comment, err := h.PostService.AddComment(c.Request.Context(), c.Param("slug"), biz.CreateCommentInput{
		AuthorName: req.AuthorName,
		Body:       req.Body,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"comment": comment})
}

// Like records one like per visitor per post and returns the new count.
func (h *PostHandlers) Like(c *gin.Context) {
	visitorID, ok := contexts.GetVisitorID(c.Request.Context())
	if !ok || visitorID == "" {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("visitor id is required"))
		return
	}

	count, err := h.PostService.LikePost(c.Request.Context(), c.Param("slug"), visitorID)
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"likeCount": count})
}

// PendingComments lists comments awaiting moderation.
func (h *PostHandlers) PendingComments(c *gin.Context) {
	comments, err := h.PostService.PendingComments(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"comments": comments})
}

// ApproveComment marks a comment as approved.
func (h *PostHandlers) ApproveComment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	if err := h.PostService.ApproveComment(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{})
}

// DeleteComment removes a comment.
func (h *PostHandlers) DeleteComment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
		return
	}

	if err := h.PostService.DeleteComment(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{})
}
