package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
)

// embeddingProcessor embeds document chunks and stores them.
type embeddingProcessor struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	retry           ai.RetryPolicy
	logger          *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(chunkRepository storage.ChunkRepository, embedder ai.Embedder, logger *slog.Logger) (*embeddingProcessor, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		chunkRepository: chunkRepository,
		embedder:        embedder,
		retry:           ai.DefaultRetryPolicy(),
		logger:          logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the given chunk texts and replaces the document's stored
// chunks with the result.
func (ep *embeddingProcessor) process(ctx context.Context, userID string, docID core.ID, texts []string) error {
	ep.logger.Info("embedding document chunks", "document", docID, "chunks", len(texts))

	if len(texts) == 0 {
		return ep.chunkRepository.DeleteChunksByDocument(ctx, userID, docID)
	}

	var embeddings [][]float32
	err := ep.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = ep.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		ep.logger.Error("error generating embeddings", "document", docID, "err", err)
		return err
	}

	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(embeddings))
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			DocumentId: docID,
			Index:      i,
			Text:       text,
			Embedding:  embeddings[i],
		}
	}

	// Replace rather than merge: a re-ingested document may have fewer
	// chunks than before.
	if err := ep.chunkRepository.DeleteChunksByDocument(ctx, userID, docID); err != nil {
		return err
	}
	_, err = ep.chunkRepository.AddChunks(ctx, userID, chunks...)
	return err
}
