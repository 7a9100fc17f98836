package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lavaait/clauseIQ/models"
)

const (
	// Chunking parameters for the regulation corpus.
	chunkTokens  = 500
	chunkOverlap = 50
)

// Embedder produces a unit-norm embedding for text. taskType distinguishes
// corpus documents from retrieval queries.
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float64, error)
}

// citationRe pulls the first FAR/DFARS section reference out of a chunk.
var citationRe = regexp.MustCompile(`(?i)\b(?:FAR|DFARS)\s+\d+(?:\.\d+)*(?:-\d+)?\b`)

// SplitIntoChunks splits text into overlapping token windows. Tokens are
// whitespace-delimited words; each chunk carries `overlap` tokens of the
// previous one for retrieval context.
func SplitIntoChunks(text string, size, overlap int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if size <= 0 {
		size = chunkTokens
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(tokens); start += step {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// ChunkRegulationText turns a flat regulation text into corpus chunks with
// extracted citations, without embeddings.
func ChunkRegulationText(sourceDocument, text string) []models.RegulationChunk {
	pieces := SplitIntoChunks(text, chunkTokens, chunkOverlap)
	chunks := make([]models.RegulationChunk, 0, len(pieces))
	for i, piece := range pieces {
		chunk := models.RegulationChunk{
			ID:             uuid.New(),
			SourceDocument: sourceDocument,
			ChunkIndex:     i,
			Text:           piece,
		}
		if citation := citationRe.FindString(piece); citation != "" {
			chunk.Citation = &citation
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// MemoryIndex is an in-memory cosine-similarity index over regulation
// chunks. It is built once and read-only afterwards, so it is safe to share
// across concurrent evaluations.
type MemoryIndex struct {
	embedder Embedder
	chunks   []models.RegulationChunk
}

// BuildMemoryIndex loads a flat regulation file, splits it into overlapping
// chunks, embeds every chunk and returns the ready index.
func BuildMemoryIndex(ctx context.Context, regulationPath string, embedder Embedder) (*MemoryIndex, error) {
	raw, err := os.ReadFile(regulationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regulation corpus: %w", err)
	}

	chunks := ChunkRegulationText(regulationPath, string(raw))
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}

	for i := range chunks {
		embedding, err := embedder.Embed(ctx, chunks[i].Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		chunks[i].Embedding = embedding
	}

	return &MemoryIndex{embedder: embedder, chunks: chunks}, nil
}

// TopK returns the k chunks most similar to the query, most similar first.
func (ix *MemoryIndex) TopK(ctx context.Context, query string, k int) ([]models.RegulationChunk, error) {
	queryEmbedding, err := ix.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, 0, len(ix.chunks))
	for i := range ix.chunks {
		scores = append(scores, scored{i, dot(queryEmbedding, ix.chunks[i].Embedding)})
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]models.RegulationChunk, 0, k)
	for _, s := range scores[:k] {
		chunk := ix.chunks[s.idx]
		// Vectors are unit-norm, so cosine distance is 1 - dot.
		chunk.Distance = 1 - s.score
		results = append(results, chunk)
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
