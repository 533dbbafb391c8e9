package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/app"
	"pdfmark/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload accepts a multipart form with the PDF in "file" and optional
// "author" and "authorMessage" fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "No file uploaded")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		Filename:      file.Filename,
		ContentType:   file.Header.Get("Content-Type"),
		Size:          file.Size,
		File:          f,
		Author:        c.PostForm("author"),
		AuthorMessage: c.PostForm("authorMessage"),
	})
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), c.Param("docId"))
	if err != nil {
		writeError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

// List is the admin listing. It accepts ?q= and ?limit=.
func (h *DocumentHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	docs, err := h.documentService.List(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}
