package reindex

import (
	"context"
	"fmt"
	"math"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
)

// BatchProcessor handles embedding generation for batches of chunks.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	retry    ai.RetryPolicy
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, retry ai.RetryPolicy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		retry:    retry,
	}
}

// Process generates embeddings for a batch of chunks and updates them in the
// store. Vectors are normalized after embedding so cosine similarity stays
// consistent across embedding models.
func (bp *BatchProcessor) Process(ctx context.Context, userID string, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := bp.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Embedding = normalize(embeddings[i])
	}

	_, err = bp.repo.UpdateChunks(ctx, userID, chunks...)
	if err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	return nil
}

// normalize scales v to unit length in place. Stored embeddings are always
// unit vectors, so cosine comparisons against them reduce to dot products
// whatever scale the embedding model emits. A zero vector stays zero.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}

	magnitude := float32(math.Sqrt(sumSquares))
	for i := range v {
		v[i] /= magnitude
	}
	return v
}
