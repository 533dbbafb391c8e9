package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/app"
	"pdfmark/internal/logging"
	"pdfmark/internal/transport/http/response"
)

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as internal errors with fallback as the message.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidMarkup):
		response.ErrorWithCause(c, http.StatusBadRequest, response.CodeInvalidMarkup, "invalid markup data", err)
	case errors.Is(err, app.ErrInvalidInput):
		response.ErrorWithCause(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request", err)
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "Document not found")
	case errors.Is(err, app.ErrMarkupNotFound):
		response.ErrorWithCause(c, http.StatusNotFound, response.CodeMarkupNotFound, "markup not found", err)
	case errors.Is(err, app.ErrMarkupExists):
		response.ErrorWithCause(c, http.StatusConflict, response.CodeMarkupExists, "markup already exists", err)
	case errors.Is(err, app.ErrUploadFailed):
		logging.From(c.Request.Context(), nil).Errorf("%s: %v", fallback, err)
		response.ErrorWithCause(c, http.StatusBadGateway, response.CodeUploadFailed, "Upload failed", err)
	default:
		logging.From(c.Request.Context(), nil).Errorf("%s: %v", fallback, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
