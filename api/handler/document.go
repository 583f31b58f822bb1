package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readly-ai/readly/api/middleware"
	"github.com/readly-ai/readly/api/model"
	"github.com/readly-ai/readly/internal/models"
	"github.com/readly-ai/readly/internal/services"
)

// DocumentHandler serves the document management endpoints.
type DocumentHandler struct {
	documentService *services.DocumentService
	logger          *logrus.Logger
}

// NewDocumentHandler creates the document handler.
func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          middleware.GetLogger(),
	}
}

// UploadDocument accepts a multipart upload and starts ingestion.
// POST /api/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	var req model.DocumentUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid document upload request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request: a file is required",
		))
		return
	}

	filename := req.File.Filename
	if !isValidFileType(filepath.Ext(filename)) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"unsupported file type, expected .pdf, .md, .markdown or .txt",
		))
		return
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithError(err).WithField("filename", filename).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to read uploaded file"))
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), file, filename)
	if err != nil {
		h.logger.WithError(err).WithField("filename", filename).Error("Failed to upload document")
		middleware.HandleError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"filename":    doc.FileName,
		"size":        doc.FileSize,
	}).Info("Document uploaded")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ToDocumentInfo(doc)))
}

// GetDocument returns a document's metadata.
// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid document id"))
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ToDocumentInfo(doc)))
}

// GetDocumentStatus reports ingestion progress for a document.
// GET /api/documents/:id/status
func (h *DocumentHandler) GetDocumentStatus(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid document id"))
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := model.DocumentStatusResponse{
		ID:       doc.ID,
		Status:   string(doc.Status),
		Progress: doc.Progress,
		Stage:    string(doc.CurrentStage),
		Error:    doc.Error,
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListDocuments pages documents with optional filters.
// GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req model.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid query parameters"))
		return
	}

	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.FileName != "" {
		filters["file_name"] = req.FileName
	}
	if req.StartTime != nil {
		filters["start_time"] = req.StartTime.Format(time.RFC3339)
	}
	if req.EndTime != nil {
		filters["end_time"] = req.EndTime.Format(time.RFC3339)
	}

	docs, total, err := h.documentService.ListDocuments(c.Request.Context(), req.Offset(), req.GetPageSize(), filters)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := model.DocumentListResponse{
		Total:     total,
		Page:      req.GetPage(),
		PageSize:  req.GetPageSize(),
		Documents: make([]model.DocumentInfo, len(docs)),
	}
	for i, doc := range docs {
		resp.Documents[i] = model.ToDocumentInfo(doc)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetDownloadURL returns a signed URL for the document's source file.
// GET /api/documents/:id/download
func (h *DocumentHandler) GetDownloadURL(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid document id"))
		return
	}

	url, err := h.documentService.DownloadURL(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			middleware.HandleError(c, err)
			return
		}
		h.logger.WithError(err).WithField("document_id", req.ID).Error("Failed to sign download URL")
		middleware.HandleError(c, middleware.NewInternalError("failed to generate download URL"))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DownloadURLResponse{
		ID:  req.ID,
		URL: url,
	}))
}

// DeleteDocument removes a document, its chunks and its vectors.
// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid document id"))
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), req.ID); err != nil {
		h.logger.WithError(err).WithField("document_id", req.ID).Error("Failed to delete document")
		middleware.HandleError(c, err)
		return
	}

	h.logger.WithField("document_id", req.ID).Info("Document deleted")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeleteResponse{
		Success: true,
		ID:      req.ID,
	}))
}

func isValidFileType(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".md", ".markdown", ".txt":
		return true
	}
	return false
}
