package scriptrag

import "github.com/peregrine-labs/scriptrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidChunkConfig     = domain.ErrInvalidChunkConfig
	ErrEmptyQuery             = domain.ErrEmptyQuery
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrChatProviderError      = domain.ErrChatProviderError
	ErrIndexUnavailable       = domain.ErrIndexUnavailable
	ErrIndexNotFound          = domain.ErrIndexNotFound
	ErrIndexExists            = domain.ErrIndexExists
)
