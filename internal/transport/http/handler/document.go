package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/app"
	"research-assistant/internal/transport/http/response"
)

type DocumentHandler struct {
	documents     *app.DocumentService
	maxUploadSize int64
}

func NewDocumentHandler(documents *app.DocumentService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUploadSize: maxUploadSize}
}

// Upload accepts a multipart form with a "file" field (PDF or TXT) and
// processes it before answering.
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxUploadSize > 0 {
		// leave room for the multipart framing around the file
		limit := h.maxUploadSize + 1<<20
		if c.Request.ContentLength > limit {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no file selected")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.Request.Context(), scopeFromContext(c), app.UploadInput{
		Filename: file.Filename,
		Content:  f,
	})
	if err != nil {
		if doc != nil {
			status, code := response.Status(err)
			_ = c.Error(err)
			response.ErrorWithData(c, status, code, "document processing failed: "+err.Error(), doc)
			return
		}
		response.FromError(c, err, "upload failed")
		return
	}
	response.Created(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), scopeFromContext(c))
	if err != nil {
		response.FromError(c, err, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), scopeFromContext(c), id)
	if err != nil {
		response.FromError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	if err := h.documents.Delete(c.Request.Context(), scopeFromContext(c), id); err != nil {
		response.FromError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

func (h *DocumentHandler) Events(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	events, err := h.documents.Events(c.Request.Context(), scopeFromContext(c), id)
	if err != nil {
		response.FromError(c, err, "load document events failed")
		return
	}
	response.OK(c, gin.H{"events": events})
}
