package core

import "fmt"

// ValidateDocument checks that a document is well-formed before storage.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return ErrInvalidDocument
	}
	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}
	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}
	if doc.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyUserId)
	}
	return nil
}

// ValidateChunk checks that a chunk is well-formed before storage.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return ErrInvalidChunk
	}
	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id required", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative chunk index %d", ErrInvalidChunk, chunk.Index)
	}
	return nil
}

// ValidateDateRange checks that Start does not come after End.
func ValidateDateRange(r DateRange) error {
	if Day(r.Start).After(Day(r.End)) {
		return ErrInvalidDateRange
	}
	return nil
}
