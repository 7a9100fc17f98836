package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/lavaait/clauseIQ/models"
	"github.com/lavaait/clauseIQ/service"
)

// ClauseHandler handles HTTP requests for clause extraction and enrichment
type ClauseHandler struct {
	normalizer  *service.Normalizer
	segmenter   *service.Segmenter
	metadata    *service.MetadataExtractor
	enricher    *service.Enricher
	maxFileSize int64
}

// NewClauseHandler creates a new clause handler
func NewClauseHandler(metadata *service.MetadataExtractor, enricher *service.Enricher) *ClauseHandler {
	return &ClauseHandler{
		normalizer:  service.NewNormalizer(),
		segmenter:   service.NewSegmenter(),
		metadata:    metadata,
		enricher:    enricher,
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// MatchClauses handles POST /api/clause/match
// Accepts a plain-text contract, segments it into clauses and enriches
// every clause with document-level metadata attached.
func (h *ClauseHandler) MatchClauses(c *gin.Context) {
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

	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Only .txt files are accepted; extract PDFs first",
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

	text := h.normalizer.Normalize(string(data))
	clauses := h.segmenter.Segment(text, fileHeader.Filename)
	meta := h.metadata.Extract(c.Request.Context(), text)

	enriched := make([]models.EnrichedClause, 0, len(clauses))
	for _, clause := range clauses {
		out, err := h.enricher.Enrich(c.Request.Context(), clause, &meta)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ENRICHMENT_FAILED",
					"message": fmt.Sprintf("Failed to enrich clause %s: %v", clause.ClauseID, err),
				},
			})
			return
		}
		enriched = append(enriched, out)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"source_file": fileHeader.Filename,
			"metadata":    meta,
			"clauses":     enriched,
		},
	})
}

type classifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// ClassifyClause handles POST /api/clause/classify
// Enriches a single ad-hoc clause with no surrounding document.
func (h *ClauseHandler) ClassifyClause(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Field 'text' is required",
			},
		})
		return
	}

	clause := models.ClauseRecord{
		ClauseID:    "N/A",
		Title:       "Provided Clause",
		Text:        req.Text,
		SectionPath: "N/A",
	}

	enriched, err := h.enricher.Enrich(c.Request.Context(), clause, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ENRICHMENT_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    enriched,
	})
}
