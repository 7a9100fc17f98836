package service

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder embeds text as normalized counts of two marker words, so
// similarity rankings are fully predictable.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(ctx context.Context, text, taskType string) ([]float64, error) {
	alpha := float64(strings.Count(text, "alpha"))
	beta := float64(strings.Count(text, "beta"))
	norm := math.Sqrt(alpha*alpha + beta*beta)
	if norm == 0 {
		return []float64{0, 0}, nil
	}
	return []float64{alpha / norm, beta / norm}, nil
}

func TestSplitIntoChunksWindowsAndOverlap(t *testing.T) {
	words := make([]string, 1200)
	for i := range words {
		words[i] = "w"
	}
	text := strings.Join(words, " ")

	chunks := SplitIntoChunks(text, 500, 50)
	require.Len(t, chunks, 3)

	assert.Len(t, strings.Fields(chunks[0]), 500)
	assert.Len(t, strings.Fields(chunks[1]), 500)
	assert.Len(t, strings.Fields(chunks[2]), 300)
}

func TestSplitIntoChunksOverlapCarriesTokens(t *testing.T) {
	words := make([]string, 20)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	text := strings.Join(words, " ")

	chunks := SplitIntoChunks(text, 10, 3)
	require.True(t, len(chunks) >= 2)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Equal(t, first[len(first)-3:], second[:3])
}

func TestSplitIntoChunksShortText(t *testing.T) {
	chunks := SplitIntoChunks("only five words right here", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "only five words right here", chunks[0])

	assert.Nil(t, SplitIntoChunks("", 500, 50))
}

func TestChunkRegulationTextExtractsCitations(t *testing.T) {
	chunks := ChunkRegulationText("far_dfars.txt", "Per FAR 52.212-4 the contractor shall comply.")
	require.Len(t, chunks, 1)

	assert.Equal(t, "far_dfars.txt", chunks[0].SourceDocument)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	require.NotNil(t, chunks[0].Citation)
	assert.Equal(t, "FAR 52.212-4", *chunks[0].Citation)

	plain := ChunkRegulationText("far_dfars.txt", "No section references here.")
	require.Len(t, plain, 1)
	assert.Nil(t, plain[0].Citation)
}

func TestBuildMemoryIndexEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n  "), 0644))

	_, err := BuildMemoryIndex(context.Background(), path, keywordEmbedder{})
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestBuildMemoryIndexMissingFile(t *testing.T) {
	_, err := BuildMemoryIndex(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), keywordEmbedder{})
	assert.Error(t, err)
}

func TestMemoryIndexTopKRanksBySimilarity(t *testing.T) {
	// 1000 tokens: the first chunk is all alpha, the last all beta.
	corpus := strings.TrimSpace(strings.Repeat("alpha ", 500) + strings.Repeat("beta ", 500))
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0644))

	index, err := BuildMemoryIndex(context.Background(), path, keywordEmbedder{})
	require.NoError(t, err)

	results, err := index.TopK(context.Background(), "beta", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Text, "beta")
	assert.NotContains(t, results[0].Text, "alpha")
	assert.InDelta(t, 0, results[0].Distance, 1e-9)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestMemoryIndexTopKClampsK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha beta alpha"), 0644))

	index, err := BuildMemoryIndex(context.Background(), path, keywordEmbedder{})
	require.NoError(t, err)

	results, err := index.TopK(context.Background(), "alpha", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
