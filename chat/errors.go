package chat

import "errors"

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrAssemblerRequired is returned when a prompt assembler is not provided.
	ErrAssemblerRequired = errors.New("prompt assembler required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrThreadNotFound is returned when a thread does not exist or belongs
	// to another user.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrEmptyMessage is returned when a message has no content.
	ErrEmptyMessage = errors.New("message must not be empty")
)
