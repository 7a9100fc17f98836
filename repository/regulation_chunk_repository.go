package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lavaait/clauseIQ/models"
)

// RegulationChunkRepository handles database operations for regulation
// chunks.
type RegulationChunkRepository struct {
	db *pgxpool.Pool
}

// NewRegulationChunkRepository creates a new regulation chunk repository.
func NewRegulationChunkRepository(db *pgxpool.Pool) *RegulationChunkRepository {
	return &RegulationChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Insert stores one embedded regulation chunk.
func (r *RegulationChunkRepository) Insert(ctx context.Context, chunk models.RegulationChunk) error {
	if len(chunk.Embedding) != 768 {
		return fmt.Errorf("embedding must be 768 dimensions, got %d", len(chunk.Embedding))
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO regulation_chunks (id, source_document, chunk_index, chunk_text, citation, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)`,
		chunk.ID, chunk.SourceDocument, chunk.ChunkIndex, chunk.Text, chunk.Citation,
		formatVector(chunk.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to insert regulation chunk: %w", err)
	}
	return nil
}

// Search returns the limit chunks nearest to the query embedding by cosine
// distance, nearest first.
func (r *RegulationChunkRepository) Search(ctx context.Context, embedding []float64, limit int) ([]models.RegulationChunk, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	rows, err := r.db.Query(ctx, `
		SELECT
			id,
			source_document,
			chunk_index,
			chunk_text,
			citation,
			embedding <=> $1::vector AS distance
		FROM regulation_chunks
		ORDER BY
			embedding <=> $1::vector
		LIMIT $2`, vectorStr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query regulation chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.RegulationChunk
	for rows.Next() {
		var chunk models.RegulationChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.SourceDocument,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.Citation,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regulation chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regulation chunks: %w", err)
	}

	return chunks, nil
}

// CountBySource returns how many chunks of a source document are already
// indexed. The index builder uses this to skip documents it has processed.
func (r *RegulationChunkRepository) CountBySource(ctx context.Context, sourceDocument string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM regulation_chunks WHERE source_document = $1`,
		sourceDocument,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count regulation chunks: %w", err)
	}
	return count, nil
}
