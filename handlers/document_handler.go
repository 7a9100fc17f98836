package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/lavaait/clauseIQ/models"
	"github.com/lavaait/clauseIQ/repository"
	"github.com/lavaait/clauseIQ/service"
	"github.com/lavaait/clauseIQ/storage"
)

// DocumentHandler handles HTTP requests for contract document intake
type DocumentHandler struct {
	repo        *repository.ComplianceRepository
	storage     storage.Storage
	normalizer  *service.Normalizer
	maxFileSize int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(repo *repository.ComplianceRepository, store storage.Storage) *DocumentHandler {
	return &DocumentHandler{
		repo:        repo,
		storage:     store,
		normalizer:  service.NewNormalizer(),
		maxFileSize: 20 * 1024 * 1024, // 20MB
	}
}

// ExtractDocument handles POST /api/documents/extract
// Accepts a PDF or plain-text contract, extracts and normalizes its text,
// stores both the original and the extracted text, and registers the
// document for the dashboard.
func (h *DocumentHandler) ExtractDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF, TXT",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	var rawText string
	var mimeType string
	switch ext {
	case ".pdf":
		mimeType = "application/pdf"
		rawText, err = extractPDFText(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PDF_EXTRACTION_FAILED",
					"message": fmt.Sprintf("Failed to extract text from PDF: %v", err),
				},
			})
			return
		}
	case ".txt":
		mimeType = "text/plain"
		if !utf8.Valid(data) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ENCODING",
					"message": "Text file is not valid UTF-8",
				},
			})
			return
		}
		rawText = string(data)
	}

	text := h.normalizer.Normalize(rawText)

	docID := uuid.New()
	storagePath, err := h.storage.Upload(c.Request.Context(), docID, fileHeader.Filename, bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to store document: %v", err),
			},
		})
		return
	}

	stem := strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	textPath, err := h.storage.Upload(c.Request.Context(), docID, stem+"_text.txt", strings.NewReader(text))
	if err != nil {
		h.storage.Delete(c.Request.Context(), storagePath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": fmt.Sprintf("Failed to store extracted text: %v", err),
			},
		})
		return
	}

	doc := models.Document{
		ID:             docID,
		Filename:       fileHeader.Filename,
		StoredBasename: fmt.Sprintf("%s_%s", sanitizeBasename(stem), docID.String()[:8]),
		MimeType:       mimeType,
		Size:           fileHeader.Size,
		StoragePath:    storagePath,
		TextPath:       textPath,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.repo.InsertContract(c.Request.Context(), doc); err != nil {
		h.storage.Delete(c.Request.Context(), storagePath)
		h.storage.Delete(c.Request.Context(), textPath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to save document record: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":              doc.ID,
			"filename":        doc.Filename,
			"stored_basename": doc.StoredBasename,
			"mime_type":       doc.MimeType,
			"size":            doc.Size,
			"created_at":      doc.CreatedAt,
			"text":            text,
		},
	})
}

// GetDocumentText handles GET /api/documents/:basename/text
func (h *DocumentHandler) GetDocumentText(c *gin.Context) {
	basename := c.Param("basename")

	doc, err := h.repo.GetContractByBasename(c.Request.Context(), basename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), doc.TextPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to download extracted text: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s_text.txt\"", basename))
	c.DataFromReader(http.StatusOK, -1, "text/plain; charset=utf-8", reader, nil)
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.repo.ListContracts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"documents": docs},
	})
}

// extractPDFText pulls the plain text of every page in order.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

func sanitizeBasename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
