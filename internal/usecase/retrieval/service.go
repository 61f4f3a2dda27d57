package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/domain"
	"github.com/peregrine-labs/scriptrag/internal/metrics"
)

const defaultFetchMultiplier = 3

// Config holds retrieval pipeline parameters.
type Config struct {
	TopK            int
	ScoreThreshold  float64
	VectorWeight    float64
	KeywordWeight   float64
	FetchMultiplier int
}

// Service runs the hybrid retrieval pipeline: embed the query, over-fetch
// nearest neighbors, score keyword coverage, fuse, rank, truncate.
type Service struct {
	embed    Embedder
	index    VectorIndex
	keywords KeywordScorer
	cfg      Config
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(embed Embedder, index VectorIndex, keywords KeywordScorer, cfg Config, logger *zap.Logger) *Service {
	if cfg.FetchMultiplier <= 0 {
		cfg.FetchMultiplier = defaultFetchMultiplier
	}
	return &Service{embed: embed, index: index, keywords: keywords, cfg: cfg, logger: logger}
}

// DefaultTopK returns the configured result count for callers that do not
// specify one.
func (s *Service) DefaultTopK() int {
	return s.cfg.TopK
}

// Retrieve returns up to topK passages ranked by hybrid score. topK <= 0
// yields no results. External failures return a typed error and no partial
// results.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, nil
	}

	start := time.Now()

	results, err := s.retrieve(ctx, query, topK)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("success").Inc()
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievalResults.Observe(float64(len(results)))

	return results, nil
}

func (s *Service) retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error) {
	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	// Over-fetch so keyword fusion can promote candidates past the ones KNN
	// alone would have kept.
	fetchK := topK * s.cfg.FetchMultiplier
	candidates, err := s.index.Search(ctx, embResult.Embedding, fetchK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	queryKeywords := s.keywords.Extract(query)

	scored := make([]domain.ScoredResult, len(candidates))
	for i, c := range candidates {
		scored[i] = domain.ScoredResult{
			ID:           c.ID,
			Text:         c.Text,
			VectorScore:  c.VectorScore,
			KeywordScore: s.keywords.Score(queryKeywords, c.Text),
			Payload:      c.Payload,
		}
	}

	ranked := rank(scored, Weights{Vector: s.cfg.VectorWeight, Keyword: s.cfg.KeywordWeight}, s.cfg.ScoreThreshold, topK)

	s.logger.Debug("retrieval complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(ranked)),
		zap.Int("fetch_k", fetchK),
	)

	return ranked, nil
}
