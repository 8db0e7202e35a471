package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/practiva/scheduling-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err with the HTTP status matching its failure kind.
func Error(c *gin.Context, err error) {
	c.JSON(statusFor(err), NewErrorResponse(err.Error()))
}

func statusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrNotOwner:
		return http.StatusForbidden
	case apperrors.ErrInvalidInput, apperrors.ErrInvalidRange, apperrors.ErrTooShort, apperrors.ErrPastDate:
		return http.StatusBadRequest
	case apperrors.ErrHasBoundAppointments, apperrors.ErrAlreadyActive, apperrors.ErrSlotUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
