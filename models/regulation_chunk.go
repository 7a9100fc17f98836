package models

import (
	"github.com/google/uuid"
)

// RegulationChunk is a chunk of the FAR/DFARS reference corpus with its
// embedding. Chunks are read-only once the index is built.
type RegulationChunk struct {
	ID             uuid.UUID `json:"id"`
	SourceDocument string    `json:"source_document"`
	ChunkIndex     int       `json:"chunk_index"`
	Text           string    `json:"text"`
	Citation       *string   `json:"citation,omitempty"`
	Embedding      []float64 `json:"-"`
	Distance       float64   `json:"distance,omitempty"`
}
