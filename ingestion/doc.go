// Package ingestion provides pipeline orchestration for processing note files.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Deriving the title and date from the filename
//   - Adding documents to storage
//   - Chunking content and generating embeddings asynchronously
//
// Embedding is performed concurrently using a worker pool to maximize
// throughput. Errors during async processing are logged but do not fail the
// ingestion operation.
package ingestion
