package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success sends a successful response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Created sends a 201 created response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// Message sends a 200 response whose data is a single message.
func Message(c *gin.Context, msg string) {
	Success(c, gin.H{"message": msg})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, "CONFLICT", message)
}

// ServiceUnavailable sends a 503 error response.
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// FromError maps an error kind from pkg/errs to its HTTP response. Errors of
// no known kind are reported as 500 with the fallback message so internal
// details never reach the caller. It reports whether err carried a known kind.
func FromError(c *gin.Context, err error, fallback string) bool {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		Conflict(c, err.Error())
	case errors.Is(err, errs.ErrInvalidOperation):
		BadRequest(c, err.Error())
	case errors.Is(err, errs.ErrDependencyUnavailable):
		ServiceUnavailable(c, err.Error())
	default:
		InternalError(c, fallback)
		return false
	}
	return true
}
