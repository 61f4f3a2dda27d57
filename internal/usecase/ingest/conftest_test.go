package ingest

import (
	"context"
	"os"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	"github.com/peregrine-labs/scriptrag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// mockBatchEmbedder records every batch it receives. Calls may arrive
// concurrently, so access is guarded.
type mockBatchEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	err     error
	tokens  int
	dropOne bool
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	m.batches = append(m.batches, texts)

	embeddings := make([][]float32, len(texts))
	for i, t := range texts {
		// Vector derived from the text length so order can be checked later.
		embeddings[i] = []float32{float32(len([]rune(t)))}
	}
	if m.dropOne && len(embeddings) > 0 {
		embeddings = embeddings[:len(embeddings)-1]
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: m.tokens}, nil
}

func (m *mockBatchEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

type mockChunkIndex struct {
	ensureFn func(ctx context.Context) error
	upsertFn func(ctx context.Context, source string, chunks []domain.Chunk, vectors [][]float32) ([]string, error)
	countFn  func(ctx context.Context) (int, error)
	dropFn   func(ctx context.Context) error
}

func (m *mockChunkIndex) EnsureIndex(ctx context.Context) error {
	if m.ensureFn != nil {
		return m.ensureFn(ctx)
	}
	return nil
}

func (m *mockChunkIndex) Upsert(ctx context.Context, source string, chunks []domain.Chunk, vectors [][]float32) ([]string, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, source, chunks, vectors)
	}
	return nil, nil
}

func (m *mockChunkIndex) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockChunkIndex) Drop(ctx context.Context) error {
	if m.dropFn != nil {
		return m.dropFn(ctx)
	}
	return nil
}

func newTestService(t *testing.T, emb *mockBatchEmbedder, idx *mockChunkIndex, cfg Config) *Service {
	t.Helper()
	return New(emb, idx, cfg, zap.NewNop())
}

func testConfig() Config {
	return Config{
		Chunking: chunker.Config{MaxSize: 10, MinSize: 6, Overlap: 2},
	}
}
