package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lavaait/clauseIQ/models"
)

// OpenComplianceDB opens (or creates) the local compliance database.
func OpenComplianceDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open compliance database: %w", err)
	}
	// modernc's driver serializes writes itself, but a single connection
	// avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	return db, nil
}

// ComplianceRepository persists ingested contracts and per-clause verdicts
// in the local sqlite database backing the dashboard.
type ComplianceRepository struct {
	db *sql.DB
}

// NewComplianceRepository creates a new compliance repository.
func NewComplianceRepository(db *sql.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

// InitSchema creates the contract and compliance tables if absent.
func (r *ComplianceRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS contracts (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			stored_basename TEXT NOT NULL UNIQUE,
			mime_type TEXT NOT NULL,
			size INTEGER NOT NULL,
			storage_path TEXT NOT NULL,
			text_path TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS contract_compliance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			contract_id TEXT NOT NULL,
			clause_id TEXT NOT NULL,
			title TEXT NOT NULL,
			compliance_summary TEXT NOT NULL,
			compliance_confidence REAL NOT NULL,
			closeout_status TEXT NOT NULL,
			risk_assessment TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_contract_compliance_contract
			ON contract_compliance(contract_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize compliance schema: %w", err)
	}
	return nil
}

// InsertContract registers an ingested document.
func (r *ComplianceRepository) InsertContract(ctx context.Context, doc models.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contracts (id, filename, stored_basename, mime_type, size, storage_path, text_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID.String(), doc.Filename, doc.StoredBasename, doc.MimeType, doc.Size,
		doc.StoragePath, doc.TextPath, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

// GetContractByBasename looks up an ingested document by its stored
// basename.
func (r *ComplianceRepository) GetContractByBasename(ctx context.Context, basename string) (*models.Document, error) {
	var doc models.Document
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, stored_basename, mime_type, size, storage_path, text_path, created_at
		FROM contracts WHERE stored_basename = ?`, basename,
	).Scan(&id, &doc.Filename, &doc.StoredBasename, &doc.MimeType, &doc.Size,
		&doc.StoragePath, &doc.TextPath, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	doc.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract id: %w", err)
	}
	return &doc, nil
}

// ListContracts returns all ingested documents, newest first.
func (r *ComplianceRepository) ListContracts(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, stored_basename, mime_type, size, storage_path, text_path, created_at
		FROM contracts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		var id string
		if err := rows.Scan(&id, &doc.Filename, &doc.StoredBasename, &doc.MimeType,
			&doc.Size, &doc.StoragePath, &doc.TextPath, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		doc.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse contract id: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// InsertValidated stores one document's clause verdicts in a single
// transaction so a partial batch never reaches the dashboard.
func (r *ComplianceRepository) InsertValidated(ctx context.Context, contractID string, clauses []models.ValidatedClause) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, cl := range clauses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contract_compliance
				(contract_id, clause_id, title, compliance_summary, compliance_confidence, closeout_status, risk_assessment, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			contractID, cl.ClauseID, cl.Title, cl.ComplianceSummary,
			cl.ComplianceConfidence, cl.CloseoutStatus, cl.RiskAssessment, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert compliance row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit compliance rows: %w", err)
	}
	return nil
}

// Summary aggregates all stored verdicts for the dashboard.
func (r *ComplianceRepository) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN closeout_status = 'Passed' THEN 1 ELSE 0 END), 0)
		FROM contract_compliance`,
	).Scan(&summary.TotalClauses, &summary.Passed)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate compliance rows: %w", err)
	}

	summary.ReviewRequired = summary.TotalClauses - summary.Passed
	if summary.TotalClauses > 0 {
		summary.CompliancePercentage = float64(summary.Passed) / float64(summary.TotalClauses) * 100
	}
	return &summary, nil
}

// ListRows returns every stored verdict row, newest first. The Excel
// export reads from here.
func (r *ComplianceRepository) ListRows(ctx context.Context) ([]models.ComplianceRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contract_id, clause_id, title, compliance_summary, compliance_confidence, closeout_status, risk_assessment, created_at
		FROM contract_compliance ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance rows: %w", err)
	}
	defer rows.Close()

	var out []models.ComplianceRow
	for rows.Next() {
		var row models.ComplianceRow
		if err := rows.Scan(&row.ID, &row.ContractID, &row.ClauseID, &row.Title,
			&row.ComplianceSummary, &row.ComplianceConfidence, &row.CloseoutStatus,
			&row.RiskAssessment, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan compliance row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
