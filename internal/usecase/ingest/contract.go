package ingest

import (
	"context"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

// Embedder vectorizes chunk texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// ChunkIndex stores chunk vectors and manages the search index lifecycle.
type ChunkIndex interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, source string, chunks []domain.Chunk, vectors [][]float32) ([]string, error)
	Count(ctx context.Context) (int, error)
	Drop(ctx context.Context) error
}
