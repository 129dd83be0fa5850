package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/ai/mock"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
	storagebadger "github.com/sidekick-labs/sidekick/storage/badger"
)

func fastConfig(batchSize int) *Config {
	return &Config{
		BatchSize:      batchSize,
		ReportInterval: batchSize,
		Retry:          ai.RetryPolicy{MaxAttempts: 1},
	}
}

func setupReindexRepos(t *testing.T) (storage.ChunkRepository, storage.CheckpointRepository) {
	t.Helper()

	_, chunkRepo, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return chunkRepo, storagebadger.NewCheckpointRepository(backend)
}

func TestNewReindexer_RequiresDependencies(t *testing.T) {
	chunkRepo, checkpoints := setupReindexRepos(t)

	_, err := NewReindexer(nil, checkpoints, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewReindexer(chunkRepo, checkpoints, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestReindexer_Run(t *testing.T) {
	chunkRepo, checkpoints := setupReindexRepos(t)
	seedChunks(t, chunkRepo, testUser, 10)

	ctx := context.Background()

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()

	reindexer, err := NewReindexer(chunkRepo, checkpoints, embedder, fastConfig(3), &buf)
	require.NoError(t, err)

	require.NoError(t, reindexer.Run(ctx, testUser))

	// Every chunk carries a normalized embedding
	updated, err := chunkRepo.FetchEmbeddingsPage(ctx, testUser, 0, 100)
	require.NoError(t, err)
	require.Len(t, updated, 10)

	for _, chunk := range updated {
		require.NotEmpty(t, chunk.Embedding, "chunk %d should have an embedding", chunk.Id)
		var magnitude float32
		for _, v := range chunk.Embedding {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be normalized")
	}

	output := buf.String()
	assert.Contains(t, output, "10/10", "should show completion")
	assert.Contains(t, output, "Reindex complete", "should print summary")

	// Checkpoint is cleared after a clean run
	checkpoint, err := checkpoints.LoadCheckpoint(ctx, processorType(testUser))
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestReindexer_EmptyCorpus(t *testing.T) {
	chunkRepo, checkpoints := setupReindexRepos(t)

	var buf bytes.Buffer
	reindexer, err := NewReindexer(chunkRepo, checkpoints, mock.NewMockEmbedder(), fastConfig(3), &buf)
	require.NoError(t, err)

	require.NoError(t, reindexer.Run(context.Background(), testUser))
	assert.Contains(t, buf.String(), "No chunks found")
}

func TestReindexer_ResumesFromCheckpoint(t *testing.T) {
	chunkRepo, checkpoints := setupReindexRepos(t)
	seedChunks(t, chunkRepo, testUser, 10)

	ctx := context.Background()

	require.NoError(t, checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: processorType(testUser),
		Position:      6,
		UpdatedAt:     time.Now(),
	}))

	embedder := mock.NewMockEmbedder()
	embedded := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		embedded += len(texts)
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reindexer, err := NewReindexer(chunkRepo, checkpoints, embedder, fastConfig(3), &buf)
	require.NoError(t, err)

	require.NoError(t, reindexer.Run(ctx, testUser))

	assert.Equal(t, 4, embedded, "should only re-embed chunks past the checkpoint")
	assert.Contains(t, buf.String(), "Resuming reindex")

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, processorType(testUser))
	require.NoError(t, err)
	assert.Nil(t, checkpoint, "checkpoint should be cleared on completion")
}

func TestReindexer_StaleCheckpointRestarts(t *testing.T) {
	chunkRepo, checkpoints := setupReindexRepos(t)
	seedChunks(t, chunkRepo, testUser, 4)

	ctx := context.Background()

	// Position beyond the corpus, e.g. after chunks were deleted
	require.NoError(t, checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: processorType(testUser),
		Position:      100,
		UpdatedAt:     time.Now(),
	}))

	embedder := mock.NewMockEmbedder()
	embedded := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		embedded += len(texts)
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reindexer, err := NewReindexer(chunkRepo, checkpoints, embedder, fastConfig(2), &buf)
	require.NoError(t, err)

	require.NoError(t, reindexer.Run(ctx, testUser))
	assert.Equal(t, 4, embedded, "stale checkpoint should restart from the beginning")
}

func TestReindexer_FailureLeavesCheckpoint(t *testing.T) {
	chunkRepo, checkpoints := setupReindexRepos(t)
	seedChunks(t, chunkRepo, testUser, 10)

	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls >= 2 {
			return nil, errors.New("embedding provider down")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reindexer, err := NewReindexer(chunkRepo, checkpoints, embedder, fastConfig(3), &buf)
	require.NoError(t, err)

	err = reindexer.Run(ctx, testUser)
	require.Error(t, err)

	// The completed first batch is checkpointed for the next run
	checkpoint, err := checkpoints.LoadCheckpoint(ctx, processorType(testUser))
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, 3, checkpoint.Position)
}

func TestReindexer_NoCheckpointRepository(t *testing.T) {
	chunkRepo, _ := setupReindexRepos(t)
	seedChunks(t, chunkRepo, testUser, 5)

	var buf bytes.Buffer
	reindexer, err := NewReindexer(chunkRepo, nil, mock.NewMockEmbedder(), fastConfig(2), &buf)
	require.NoError(t, err)

	require.NoError(t, reindexer.Run(context.Background(), testUser))
	assert.Contains(t, buf.String(), "Reindex complete")
}
