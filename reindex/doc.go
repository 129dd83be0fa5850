// Package reindex re-embeds a user's stored chunks with a new or updated
// embedding model.
//
// Chunks are processed in batches with progress reporting; a checkpoint is
// persisted after every batch so an interrupted run resumes where it left
// off instead of starting over. Vectors are normalized to unit length for
// cosine similarity search.
package reindex
