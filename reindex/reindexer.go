// Copyright 2025 Sidekick Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
)

// Config holds configuration for the reindex operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// Retry governs retries of embedding-provider calls
	Retry ai.RetryPolicy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		Retry:          ai.DefaultRetryPolicy(),
	}
}

// Reindexer orchestrates the re-embedding of a user's stored chunks. Progress
// is checkpointed after every batch, so an interrupted run resumes where it
// left off instead of re-embedding the whole corpus.
type Reindexer struct {
	chunks      storage.ChunkRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *ChunkIterator
}

// NewReindexer creates a new reindexer.
// checkpoints may be nil, in which case runs always start from the beginning.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(chunks storage.ChunkRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		chunks:      chunks,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(chunks, embedder, config.Retry),
		iterator:    NewChunkIterator(chunks, config.BatchSize),
	}, nil
}

// processorType names the checkpoint slot for a user's reindex run.
func processorType(userID string) string {
	return fmt.Sprintf("reindex:%s", userID)
}

// Run re-embeds all of the user's chunks with the configured embedder.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context, userID string) error {
	total, err := r.chunks.CountChunks(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found for user (0 chunks)\n")
		return nil
	}

	startOffset, err := r.resumePosition(ctx, userID)
	if err != nil {
		return err
	}
	if startOffset >= total {
		startOffset = 0
	}

	if startOffset > 0 {
		fmt.Fprintf(r.progress, "Resuming reindex of %d chunks from offset %d (batch size: %d)\n",
			total, startOffset, r.config.BatchSize)
	} else {
		fmt.Fprintf(r.progress, "Starting reindex of %d chunks (batch size: %d)\n",
			total, r.config.BatchSize)
	}

	reporter := NewProgressReporter(r.progress, total, startOffset, r.config.ReportInterval)
	processed := startOffset

	err = r.iterator.ForEach(ctx, userID, startOffset, func(offset int, chunks []*core.Chunk) error {
		if err := r.processor.Process(ctx, userID, chunks); err != nil {
			return fmt.Errorf("failed to process batch at offset %d: %w", offset, err)
		}

		processed += len(chunks)
		if err := r.saveCheckpoint(ctx, userID, processed); err != nil {
			return err
		}
		reporter.Checkpointed(processed)

		return nil
	})

	if err != nil {
		return err
	}

	elapsed, done := reporter.Finish()

	if err := r.clearCheckpoint(ctx, userID); err != nil {
		return err
	}

	fmt.Fprintf(r.progress, "Reindex complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		done, elapsed.Round(time.Second), float64(done)/elapsed.Seconds())

	return nil
}

func (r *Reindexer) resumePosition(ctx context.Context, userID string) (int, error) {
	if r.checkpoints == nil {
		return 0, nil
	}

	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, processorType(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil || checkpoint.Position < 0 {
		return 0, nil
	}

	return checkpoint.Position, nil
}

func (r *Reindexer) saveCheckpoint(ctx context.Context, userID string, position int) error {
	if r.checkpoints == nil {
		return nil
	}

	checkpoint := &core.Checkpoint{
		ProcessorType: processorType(userID),
		Position:      position,
		UpdatedAt:     time.Now(),
	}
	if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return nil
}

func (r *Reindexer) clearCheckpoint(ctx context.Context, userID string) error {
	if r.checkpoints == nil {
		return nil
	}

	if err := r.checkpoints.ClearCheckpoint(ctx, processorType(userID)); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	return nil
}
