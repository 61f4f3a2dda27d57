package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	"github.com/peregrine-labs/scriptrag/internal/metrics"
	"github.com/peregrine-labs/scriptrag/internal/normalize"
)

const (
	defaultEmbedBatchSize = 100
	defaultEmbedWorkers   = 4
)

// Config holds chunking and embedding batch parameters.
type Config struct {
	Chunking       chunker.Config
	EmbedBatchSize int
	EmbedWorkers   int
}

// Stats summarizes a completed ingestion.
type Stats struct {
	ChunkCount  int
	TotalRunes  int
	AvgChunkLen int
	TotalTokens int
}

// Service ingests documents: normalize, chunk, embed in batches, store.
type Service struct {
	embed  Embedder
	index  ChunkIndex
	cfg    Config
	logger *zap.Logger
}

// New creates an ingest service.
func New(embed Embedder, index ChunkIndex, cfg Config, logger *zap.Logger) *Service {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = defaultEmbedBatchSize
	}
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = defaultEmbedWorkers
	}
	return &Service{embed: embed, index: index, cfg: cfg, logger: logger}
}

// Ingest chunks and indexes a document. A document that normalizes to empty
// text yields zero chunks and touches nothing. Any embedding or storage
// failure aborts the whole ingestion.
func (s *Service) Ingest(ctx context.Context, doc domain.Document) (Stats, error) {
	text := normalize.Text(doc.Text)
	if text == "" {
		return Stats{}, nil
	}

	chunks, err := chunker.Split(text, s.cfg.Chunking)
	if err != nil {
		return Stats{}, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return Stats{}, nil
	}

	if err := s.index.EnsureIndex(ctx); err != nil {
		return Stats{}, fmt.Errorf("ensure index: %w", err)
	}

	vectors, tokens, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return Stats{}, err
	}

	if _, err := s.index.Upsert(ctx, doc.Source, chunks, vectors); err != nil {
		return Stats{}, fmt.Errorf("store chunks: %w", err)
	}

	metrics.IngestedChunksTotal.Add(float64(len(chunks)))

	stats := buildStats(chunks, tokens)
	s.logger.Info("document ingested",
		zap.String("source", doc.Source),
		zap.Int("chunks", stats.ChunkCount),
		zap.Int("avg_chunk_len", stats.AvgChunkLen),
		zap.Int("tokens", stats.TotalTokens),
	)
	return stats, nil
}

// Chunk normalizes and splits text the same way Ingest would, without
// embedding or storing anything. Zero fields in override fall back to the
// configured chunking parameters, so callers can preview alternate sizings.
func (s *Service) Chunk(text string, override chunker.Config) ([]domain.Chunk, error) {
	cfg := s.cfg.Chunking
	if override.MaxSize > 0 {
		cfg.MaxSize = override.MaxSize
	}
	if override.MinSize > 0 {
		cfg.MinSize = override.MinSize
	}
	if override.Overlap > 0 {
		cfg.Overlap = override.Overlap
	}

	normalized := normalize.Text(text)
	if normalized == "" {
		return nil, nil
	}

	chunks, err := chunker.Split(normalized, cfg)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	return chunks, nil
}

// embedChunks vectorizes chunk texts in batches of EmbedBatchSize, with up to
// EmbedWorkers batches in flight. Vectors come back in chunk order.
func (s *Service) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, int, error) {
	vectors := make([][]float32, len(chunks))
	tokens := make([]int, (len(chunks)+s.cfg.EmbedBatchSize-1)/s.cfg.EmbedBatchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedWorkers)

	for start, batch := 0, 0; start < len(chunks); start, batch = start+s.cfg.EmbedBatchSize, batch+1 {
		start, batch := start, batch
		end := min(start+s.cfg.EmbedBatchSize, len(chunks))

		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}

			res, err := s.embed.BatchEmbed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks [%d:%d]: %w", start, end, err)
			}
			if len(res.Embeddings) != len(texts) {
				return fmt.Errorf("embed chunks [%d:%d]: got %d vectors for %d texts",
					start, end, len(res.Embeddings), len(texts))
			}

			copy(vectors[start:end], res.Embeddings)
			tokens[batch] = res.TotalTokens
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, t := range tokens {
		total += t
	}
	return vectors, total, nil
}

// Count returns the number of indexed chunks.
func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// Clear removes all indexed chunks and the index itself.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.index.Drop(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	s.logger.Info("index cleared")
	return nil
}

func buildStats(chunks []domain.Chunk, tokens int) Stats {
	total := 0
	for _, c := range chunks {
		total += c.CharLen
	}
	return Stats{
		ChunkCount:  len(chunks),
		TotalRunes:  total,
		AvgChunkLen: total / len(chunks),
		TotalTokens: tokens,
	}
}
