package models

import "time"

// ComplianceRow is a persisted per-clause compliance verdict, as stored in
// the contract_compliance table for the dashboard.
type ComplianceRow struct {
	ID                   int64     `json:"id"`
	ContractID           string    `json:"contract_id"`
	ClauseID             string    `json:"clause_id"`
	Title                string    `json:"title"`
	ComplianceSummary    string    `json:"compliance_summary"`
	ComplianceConfidence float64   `json:"compliance_confidence"`
	CloseoutStatus       string    `json:"closeout_status"`
	RiskAssessment       string    `json:"risk_assessment"`
	CreatedAt            time.Time `json:"created_at"`
}

// DashboardSummary aggregates compliance rows for the dashboard view.
type DashboardSummary struct {
	TotalClauses         int     `json:"total_clauses"`
	Passed               int     `json:"passed"`
	ReviewRequired       int     `json:"review_required"`
	CompliancePercentage float64 `json:"compliance_percentage"`
}
