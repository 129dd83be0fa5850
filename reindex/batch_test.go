package reindex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/ai/mock"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func TestNormalize(t *testing.T) {
	t.Run("scales to unit length", func(t *testing.T) {
		v := normalize([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
		assert.InDelta(t, 1.0, magnitude(v), 1e-6)
	})

	t.Run("unit vector unchanged", func(t *testing.T) {
		v := normalize([]float32{0, 1, 0})
		assert.Equal(t, []float32{0, 1, 0}, v)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := normalize([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, normalize(nil))
	})
}

func TestBatchProcessor_StoresNormalizedVectors(t *testing.T) {
	chunkRepo, _ := setupReindexRepos(t)
	chunks := seedChunks(t, chunkRepo, testUser, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// Deliberately non-unit output
		return [][]float32{{3, 0, 0}, {0, 0, 5}}, nil
	}

	processor := NewBatchProcessor(chunkRepo, embedder, ai.RetryPolicy{MaxAttempts: 1})
	require.NoError(t, processor.Process(context.Background(), testUser, chunks))

	stored, err := chunkRepo.FetchEmbeddingsPage(context.Background(), testUser, 0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, chunk := range stored {
		assert.InDelta(t, 1.0, magnitude(chunk.Embedding), 1e-6)
	}
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	chunkRepo, _ := setupReindexRepos(t)
	chunks := seedChunks(t, chunkRepo, testUser, 3)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0, 0}}, nil
	}

	processor := NewBatchProcessor(chunkRepo, embedder, ai.RetryPolicy{MaxAttempts: 1})
	err := processor.Process(context.Background(), testUser, chunks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	chunkRepo, _ := setupReindexRepos(t)

	embedder := mock.NewMockEmbedder()
	processor := NewBatchProcessor(chunkRepo, embedder, ai.RetryPolicy{MaxAttempts: 1})

	require.NoError(t, processor.Process(context.Background(), testUser, nil))
	assert.Equal(t, 0, embedder.CallCount())
}
