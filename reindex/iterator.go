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

	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
)

const (
	// DefaultBatchSize is the default number of chunks fetched per batch
	DefaultBatchSize = 100
)

// ChunkIterator iterates over a user's chunks in stable key order.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks to fetch in each batch (must be > 0)
func NewChunkIterator(repo storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over the user's chunks starting at startOffset, calling
// fn with each batch and the offset it begins at. Iteration stops on the
// first error from fn or when the corpus is exhausted. Context cancellation
// is checked between batches.
//
// Re-embedding rewrites chunk values in place without changing keys, so the
// key-ordered pagination stays stable across updates.
func (it *ChunkIterator) ForEach(ctx context.Context, userID string, startOffset int, fn func(offset int, chunks []*core.Chunk) error) error {
	offset := startOffset
	if offset < 0 {
		offset = 0
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunks, err := it.repo.FetchEmbeddingsPage(ctx, userID, offset, it.batchSize)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}

		if err := fn(offset, chunks); err != nil {
			return err
		}

		if len(chunks) < it.batchSize {
			return nil
		}
		offset += len(chunks)
	}
}
