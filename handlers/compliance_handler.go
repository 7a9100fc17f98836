package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/lavaait/clauseIQ/models"
	"github.com/lavaait/clauseIQ/repository"
	"github.com/lavaait/clauseIQ/service"
)

// ComplianceHandler handles HTTP requests for compliance validation and
// the dashboard views over stored verdicts
type ComplianceHandler struct {
	validator *service.Validator
	repo      *repository.ComplianceRepository
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(validator *service.Validator, repo *repository.ComplianceRepository) *ComplianceHandler {
	return &ComplianceHandler{validator: validator, repo: repo}
}

type validateRequest struct {
	ContractID string               `json:"contract_id"`
	Clauses    []models.ClauseInput `json:"clauses"`
}

// ValidateClauses handles POST /api/compliance/validate
// Validates a clause list against the regulation corpus and persists the
// verdicts for the dashboard.
func (h *ComplianceHandler) ValidateClauses(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Body must be JSON with a 'clauses' list",
			},
		})
		return
	}

	contractID := req.ContractID
	if contractID == "" {
		contractID = uuid.New().String()
	}

	validated, err := h.validator.ValidateDocument(c.Request.Context(), contractID, req.Clauses)
	if err != nil {
		if errors.Is(err, service.ErrEmptyClauseList) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_CLAUSE_LIST",
					"message": "At least one clause is required",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.repo.InsertValidated(c.Request.Context(), contractID, validated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to persist verdicts: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"contract_id": contractID,
			"clauses":     validated,
		},
	})
}

// DashboardSummary handles GET /api/dashboard/compliance
func (h *ComplianceHandler) DashboardSummary(c *gin.Context) {
	summary, err := h.repo.Summary(c.Request.Context())
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
		"data":    summary,
	})
}

var exportHeaders = []string{
	"Contract ID", "Clause ID", "Title", "Compliance Summary",
	"Confidence", "Closeout Status", "Risk Assessment", "Created At",
}

// ExportXLSX handles GET /api/dashboard/export/xlsx
// Streams every stored verdict row as an Excel workbook.
func (h *ComplianceHandler) ExportXLSX(c *gin.Context) {
	rows, err := h.repo.ListRows(c.Request.Context())
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

	workbook := excelize.NewFile()
	defer workbook.Close()

	const sheet = "Compliance"
	index, err := workbook.NewSheet(sheet)
	if err == nil {
		workbook.SetActiveSheet(index)
		workbook.DeleteSheet("Sheet1")
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		workbook.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		values := []interface{}{
			row.ContractID, row.ClauseID, row.Title, row.ComplianceSummary,
			row.ComplianceConfidence, row.CloseoutStatus, row.RiskAssessment,
			row.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			workbook.SetCellValue(sheet, cell, value)
		}
	}

	c.Header("Content-Disposition", `attachment; filename="compliance_report.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
