package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/app"
)

const (
	CodeOK                  = 0
	CodeBadRequest          = 40000
	CodeUnsupportedFormat   = 40001
	CodeEmptyDocument       = 40002
	CodeUnauthorized        = 40100
	CodeNotFound            = 40400
	CodeConflict            = 40900
	CodeDocumentNotReady    = 40901
	CodeInsufficientDocs    = 42200
	CodeInternalServer      = 50000
	CodeUpstreamUnavailable = 50200
)

type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse{
		Code:    CodeOK,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData reports a failure that still produced a result, such as an
// upload whose processing failed.
func ErrorWithData(c *gin.Context, httpStatus, code int, message string, data any) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Status maps a service error to its HTTP status and envelope code.
func Status(err error) (int, int) {
	switch {
	case errors.Is(err, app.ErrUnsupportedFormat):
		return http.StatusBadRequest, CodeUnsupportedFormat
	case errors.Is(err, app.ErrEmptyDocument):
		return http.StatusBadRequest, CodeEmptyDocument
	case errors.Is(err, app.ErrValidation):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, app.ErrDocumentNotReady):
		return http.StatusConflict, CodeDocumentNotReady
	case errors.Is(err, app.ErrConstraintViolation),
		errors.Is(err, app.ErrInvalidTransition),
		errors.Is(err, app.ErrIndexNotFound):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, app.ErrInsufficientDocuments):
		return http.StatusUnprocessableEntity, CodeInsufficientDocs
	case errors.Is(err, app.ErrUpstreamUnavailable), errors.Is(err, app.ErrEmbeddingService):
		return http.StatusBadGateway, CodeUpstreamUnavailable
	default:
		return http.StatusInternalServerError, CodeInternalServer
	}
}

// FromError writes the envelope for err. Internal errors keep their detail
// out of the response body.
func FromError(c *gin.Context, err error, fallback string) {
	status, code := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = fallback
	}
	_ = c.Error(err)
	Error(c, status, code, msg)
}
