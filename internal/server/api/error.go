package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/biz"
	"github.com/mercatohq/mercato/internal/server/db"
)

// JSONError writes the JSON error envelope and records the error on the gin
// context for access logging.
func JSONError(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.JSON(status, objects.ErrorResponse{
		OK:     false,
		Error:  code,
		Detail: err.Error(),
	})
}

// ServiceError maps a service error onto the envelope. Unknown errors are
// reported as server_error without leaking their message.
func ServiceError(c *gin.Context, err error) {
	var validation *biz.ValidationError

	switch {
	case errors.As(err, &validation):
		JSONError(c, http.StatusBadRequest, objects.ErrCodeBadRequest, err)
	case errors.Is(err, biz.ErrNotFound):
		JSONError(c, http.StatusNotFound, objects.ErrCodeNotFound, err)
	case errors.Is(err, biz.ErrSlugConflict):
		JSONError(c, http.StatusConflict, objects.ErrCodeSlugConflict, err)
	case errors.Is(err, biz.ErrConflict):
		JSONError(c, http.StatusConflict, objects.ErrCodeConflict, err)
	case errors.Is(err, biz.ErrInvalidToken):
		JSONError(c, http.StatusUnauthorized, objects.ErrCodeInvalidToken, err)
	case errors.Is(err, db.ErrAcquireTimeout):
		JSONError(c, http.StatusServiceUnavailable, objects.ErrCodeServerError, err)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, objects.ErrorResponse{
			OK:     false,
			Error:  objects.ErrCodeServerError,
			Detail: "internal server error",
		})
	}
}
