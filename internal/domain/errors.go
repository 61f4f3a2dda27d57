package domain

import "errors"

var (
	// ErrInvalidChunkConfig signals chunking parameters that violate 0 < overlap < min <= max.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
	// ErrEmptyQuery signals a blank retrieval query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat-completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrIndexUnavailable signals that the vector index cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrIndexNotFound signals a missing vector index.
	ErrIndexNotFound = errors.New("vector index not found")
	// ErrIndexExists signals that the vector index already exists.
	ErrIndexExists = errors.New("vector index already exists")
)
