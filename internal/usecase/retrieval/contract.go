package retrieval

import (
	"context"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex fetches nearest-neighbor candidates for a query vector.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, topK int) ([]domain.Candidate, error)
}

// KeywordScorer extracts keyword sets and scores keyword coverage of a text.
type KeywordScorer interface {
	Extract(text string) map[string]struct{}
	Score(queryKeywords map[string]struct{}, text string) float64
}
