package answer

import (
	"context"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

// Retriever runs the hybrid retrieval pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error)
	DefaultTopK() int
}

// Generator produces a chat completion from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
