package response

import (
	"net/http"

	"evently-booking/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

// OK writes payload with status 200.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created writes payload with status 201.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// Error writes the {detail} failure shape with the given status.
func Error(c *gin.Context, code int, detail string) {
	c.JSON(code, ErrorResponse{Detail: detail})
}

// FromError maps a taxonomy error to its HTTP status and detail.
func FromError(c *gin.Context, err error) {
	Error(c, apperrors.HTTPStatus(err), apperrors.Detail(err))
}
