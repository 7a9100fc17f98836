package service

import (
	"context"
	"fmt"

	"github.com/lavaait/clauseIQ/models"
	"github.com/lavaait/clauseIQ/repository"
)

// RepositoryRetriever serves regulation retrieval from the pgvector store
// instead of the in-memory index.
type RepositoryRetriever struct {
	repo     *repository.RegulationChunkRepository
	embedder Embedder
}

// NewRepositoryRetriever creates a retriever backed by the regulation
// chunk repository.
func NewRepositoryRetriever(repo *repository.RegulationChunkRepository, embedder Embedder) *RepositoryRetriever {
	return &RepositoryRetriever{repo: repo, embedder: embedder}
}

// TopK embeds the query and returns the k nearest chunks by cosine
// distance.
func (r *RepositoryRetriever) TopK(ctx context.Context, query string, k int) ([]models.RegulationChunk, error) {
	embedding, err := r.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return r.repo.Search(ctx, embedding, k)
}
