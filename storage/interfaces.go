package storage

import (
	"context"
	"time"

	"github.com/sidekick-labs/sidekick/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
// All operations are scoped to a user: one store can hold the notes of
// several users without them seeing each other's data.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, derives a content-based ID from the user and
	// title, so re-adding a note with the same title replaces it.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, userID string, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, userID string, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, userID string, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentByTitle finds a document by its title, case-insensitively.
	// Returns ErrNotFound if no matching document exists.
	GetDocumentByTitle(ctx context.Context, userID, title string) (*core.Document, error)

	// GetDocumentsByDateRange retrieves documents whose date falls within
	// the range. Returns documents where start <= Date <= end, ordered by
	// date ascending, stopping after limit documents. Documents without a
	// date are never returned. Limit must be > 0.
	GetDocumentsByDateRange(ctx context.Context, userID string, start, end time.Time, limit int) ([]*core.Document, error)

	// CountDocuments returns the number of documents stored for the user.
	CountDocuments(ctx context.Context, userID string) (int, error)
}

// ChunkRepository provides operations for managing document chunks and
// their embeddings.
type ChunkRepository interface {
	Repository
	// AddChunks adds one or more chunks to storage. A chunk is keyed by its
	// document and index, so re-adding replaces the previous version.
	// For chunks with ID=0, derives a content-based ID.
	// Sets InsertedAt timestamp if not already set.
	AddChunks(ctx context.Context, userID string, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, userID string, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	DeleteChunksByDocument(ctx context.Context, userID string, docID core.ID) error

	// GetChunksByDocument retrieves all chunks of a document, ordered by
	// chunk index.
	GetChunksByDocument(ctx context.Context, userID string, docID core.ID) ([]*core.Chunk, error)

	// FetchEmbeddingsPage retrieves a stable page of the user's chunks in
	// key order. Offset is the number of chunks to skip; limit caps the
	// page size. An empty result means the scan is complete.
	FetchEmbeddingsPage(ctx context.Context, userID string, offset, limit int) ([]*core.Chunk, error)

	// CountChunks returns the number of chunks stored for the user.
	CountChunks(ctx context.Context, userID string) (int, error)
}

// CheckpointRepository persists progress markers for background processors.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a processor type.
	ClearCheckpoint(ctx context.Context, processorType string) error
}
