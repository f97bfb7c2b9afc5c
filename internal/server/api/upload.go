package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
)

type UploadHandlersParams struct {
	fx.In

	UploadService *biz.UploadService
}

func NewUploadHandlers(params UploadHandlersParams) *UploadHandlers {
	return &UploadHandlers{
		UploadService: params.UploadService,
	}
}

type UploadHandlers struct {
	UploadService *biz.UploadService
}

// Upload stores an image sent as multipart form data under the "file" field.
func (h *UploadHandlers) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, errors.New("file field is required"))
		return
	}
	defer file.Close()

	info, err := h.UploadService.SaveImage(c.Request.Context(), biz.SaveImageInput{
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusCreated, gin.H{"upload": info})
}

// List returns stored uploads.
func (h *UploadHandlers) List(c *gin.Context) {
	uploads, err := h.UploadService.ListUploads(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}

	JSONOK(c, http.StatusOK, gin.H{"uploads": uploads})
}
