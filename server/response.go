package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/nodeflow/errors"
)

// DataResponse wraps every successful API response.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta is attached to list responses.
type Meta struct {
	Total int `json:"total"`
}

// RespondWithError writes err as an error envelope. Errors that are not
// AppErrors become INTERNAL_ERROR with status 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.JSON(appErr.Status(), appErr.ToResponse())
}

func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}
