package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spendlens/spendlens/internal/models"
)

// ListDocuments handles GET /api/documents.
func (h *Handlers) ListDocuments(c *gin.Context) {
	opts := listOptions(c)
	opts.Filters["type"] = c.Query("type")

	documents, pagination, err := h.repos.Documents.List(opts)
	if err != nil {
		h.respondRepoError(c, err, "document not found")
		return
	}
	respondList(c, documents, pagination)
}

// GetDocument handles GET /api/documents/:id.
func (h *Handlers) GetDocument(c *gin.Context) {
	document, err := h.repos.Documents.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "document not found")
		return
	}
	c.JSON(http.StatusOK, document)
}

// DocumentStats handles GET /api/documents/stats.
func (h *Handlers) DocumentStats(c *gin.Context) {
	stats, err := h.repos.Documents.Stats()
	if err != nil {
		h.respondRepoError(c, err, "document not found")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadDocument handles POST /api/documents/upload. Accepts one multipart
// file under the "document" field, stores it and records a document row.
func (h *Handlers) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		respondError(c, http.StatusBadRequest, "no file uploaded")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	storedPath, err := h.uploads.Save(fileHeader.Filename, content)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	doc := &models.Document{
		ID:               "document_" + uuid.NewString(),
		FileName:         fileHeader.Filename,
		FilePath:         storedPath,
		FileSize:         fileHeader.Size,
		Type:             documentTypeFor(fileHeader.Filename),
		ProcessingStatus: "PENDING",
	}
	if mimeType != "" {
		doc.MimeType = &mimeType
	}

	if err := h.repos.Documents.Create(nil, doc); err != nil {
		h.respondRepoError(c, err, "document not found")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// DeleteDocument handles DELETE /api/documents/:id and removes the stored
// file alongside the row.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	document, err := h.repos.Documents.GetByID(c.Param("id"))
	if err != nil {
		h.respondRepoError(c, err, "document not found")
		return
	}

	if err := h.repos.Documents.Delete(document.ID); err != nil {
		h.respondRepoError(c, err, "document not found")
		return
	}

	if err := h.uploads.Remove(document.FilePath); err != nil {
		h.logger.Warn("Failed to remove stored file",
			zap.String("path", document.FilePath), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// documentTypeFor classifies an upload by its name. Anything that looks like
// an invoice scan is typed INVOICE.
func documentTypeFor(fileName string) models.DocumentType {
	if strings.Contains(strings.ToLower(fileName), "invoice") {
		return models.DocumentTypeInvoice
	}
	return models.DocumentTypeOther
}
