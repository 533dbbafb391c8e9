package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/app"
	"pdfmark/internal/model"
	"pdfmark/internal/transport/http/response"
)

// MarkupHandler serves one markup collection. The router registers one per
// kind.
type MarkupHandler struct {
	kind          model.Kind
	markupService *app.MarkupService
}

func NewMarkupHandler(kind model.Kind, markupService *app.MarkupService) *MarkupHandler {
	return &MarkupHandler{kind: kind, markupService: markupService}
}

func (h *MarkupHandler) List(c *gin.Context) {
	items, err := h.markupService.List(c.Request.Context(), h.kind, c.Param("docId"))
	if err != nil {
		writeError(c, err, fmt.Sprintf("list %s failed", h.kind.Collection()))
		return
	}
	response.OK(c, items)
}

// Replace expects {"<collection>": [...]} and overwrites the stored
// collection with it.
func (h *MarkupHandler) Replace(c *gin.Context) {
	var envelope map[string]json.RawMessage
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.invalidList(c, err)
		return
	}
	raw, ok := envelope[h.kind.Collection()]
	if !ok || len(raw) == 0 || raw[0] != '[' {
		h.invalidList(c, nil)
		return
	}

	var items []model.Markup
	if err := json.Unmarshal(raw, &items); err != nil {
		h.invalidList(c, err)
		return
	}

	if _, err := h.markupService.Replace(c.Request.Context(), h.kind, c.Param("docId"), items); err != nil {
		writeError(c, err, fmt.Sprintf("save %s failed", h.kind.Collection()))
		return
	}
	response.Success(c)
}

func (h *MarkupHandler) Add(c *gin.Context) {
	var m model.Markup
	if err := c.ShouldBindJSON(&m); err != nil {
		response.ErrorWithCause(c, http.StatusBadRequest, response.CodeInvalidMarkup, "invalid markup data", err)
		return
	}

	created, err := h.markupService.Add(c.Request.Context(), h.kind, c.Param("docId"), m)
	if err != nil {
		writeError(c, err, fmt.Sprintf("add %s failed", h.kind))
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *MarkupHandler) Update(c *gin.Context) {
	var m model.Markup
	if err := c.ShouldBindJSON(&m); err != nil {
		response.ErrorWithCause(c, http.StatusBadRequest, response.CodeInvalidMarkup, "invalid markup data", err)
		return
	}

	updated, err := h.markupService.Update(c.Request.Context(), h.kind, c.Param("docId"), model.MarkupID(c.Param("id")), m)
	if err != nil {
		writeError(c, err, fmt.Sprintf("update %s failed", h.kind))
		return
	}
	response.OK(c, updated)
}

func (h *MarkupHandler) Delete(c *gin.Context) {
	if err := h.markupService.Delete(c.Request.Context(), h.kind, c.Param("docId"), model.MarkupID(c.Param("id"))); err != nil {
		writeError(c, err, fmt.Sprintf("delete %s failed", h.kind))
		return
	}
	response.Success(c)
}

func (h *MarkupHandler) invalidList(c *gin.Context, cause error) {
	response.ErrorWithCause(c, http.StatusBadRequest, response.CodeBadRequest,
		fmt.Sprintf("Invalid %s data", h.kind.Collection()), cause)
}
