package scriptrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/db"
	dbRedis "github.com/peregrine-labs/scriptrag/internal/db/redis"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	"github.com/peregrine-labs/scriptrag/internal/keywords"
	indexrepo "github.com/peregrine-labs/scriptrag/internal/repository/index"
	answeruc "github.com/peregrine-labs/scriptrag/internal/usecase/answer"
	healthuc "github.com/peregrine-labs/scriptrag/internal/usecase/health"
	ingestuc "github.com/peregrine-labs/scriptrag/internal/usecase/ingest"
	retrievaluc "github.com/peregrine-labs/scriptrag/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultVectorDimensions = 1024
)

// Internal interfaces, swappable in tests.
type retrievalUseCase interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error)
	DefaultTopK() int
}

type ingestUseCase interface {
	Ingest(ctx context.Context, doc domain.Document) (ingestuc.Stats, error)
	Chunk(text string, override chunker.Config) ([]domain.Chunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type answerUseCase interface {
	Answer(ctx context.Context, question string, topK int) (answeruc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the scriptrag embedded client entry point.
type Client struct {
	store        db.Store
	retrievalSvc retrievalUseCase
	ingestSvc    ingestUseCase
	answerSvc    answerUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a scriptrag Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultVectorDimensions,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("scriptrag: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("scriptrag: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("scriptrag: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	// Noop if not set: Retrieve and Ingest return an error.
	var emb interface {
		Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
		BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	} = &noopEmbedder{}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}

	indexRepo := indexrepo.New(store, indexrepo.Config{
		Dim:         cfg.vectorDimensions,
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})

	tokenizer := keywords.NewNgramTokenizer(cfg.lexicon...)
	extractorOpts := []keywords.Option{}
	if cfg.numericTolerance > 0 {
		extractorOpts = append(extractorOpts, keywords.WithNumericTolerance(cfg.numericTolerance))
	}
	extractor := keywords.New(tokenizer, extractorOpts...)

	// Internal services log through the HTTP server; the embedded client
	// observes at the operation level instead.
	nop := zap.NewNop()

	retrievalSvc := retrievaluc.New(emb, indexRepo, extractor, retrievaluc.Config{
		TopK:           cfg.topK,
		ScoreThreshold: cfg.scoreThreshold,
		VectorWeight:   cfg.vectorWeight,
		KeywordWeight:  cfg.keywordWeight,
	}, nop)

	ingestSvc := ingestuc.New(emb, indexRepo, ingestuc.Config{
		Chunking: chunker.Config{
			MaxSize: cfg.chunkMaxSize,
			MinSize: cfg.chunkMinSize,
			Overlap: cfg.chunkOverlap,
		},
		EmbedBatchSize: cfg.embedBatchSize,
		EmbedWorkers:   cfg.embedWorkers,
	}, nop)

	c := &Client{
		store:        store,
		retrievalSvc: retrievalSvc,
		ingestSvc:    ingestSvc,
		healthSvc:    healthuc.New(store, nil),
		obs:          obs,
	}

	if cfg.generator != nil {
		c.answerSvc = answeruc.New(retrievalSvc, &generatorAdapter{inner: cfg.generator},
			answeruc.Config{MaxContextRunes: cfg.maxContextRunes}, nop)
	}

	return c
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest chunks, embeds and indexes a document under the given source label.
func (c *Client) Ingest(ctx context.Context, source, text string) (stats IngestStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	s, err := c.ingestSvc.Ingest(ctx, domain.Document{Source: source, Text: text})
	if err != nil {
		return IngestStats{}, fmt.Errorf("ingest: %w", err)
	}
	return IngestStats{
		ChunkCount:  s.ChunkCount,
		TotalRunes:  s.TotalRunes,
		AvgChunkLen: s.AvgChunkLen,
		TotalTokens: s.TotalTokens,
	}, nil
}

// ChunkDocument normalizes and splits text the way Ingest would, without
// embedding or touching the index. It needs no embedder or generator.
func (c *Client) ChunkDocument(text string) (chunks []Chunk, err error) {
	start := time.Now()
	defer func() { c.obs.observe("chunk_document", start, err) }()

	split, err := c.ingestSvc.Chunk(text, chunker.Config{})
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(split) == 0 {
		return nil, nil
	}
	chunks = make([]Chunk, len(split))
	for i, s := range split {
		chunks[i] = Chunk{Index: s.Index, Text: s.Text, CharLen: s.CharLen}
	}
	return chunks, nil
}

// Retrieve returns up to topK passages ranked by hybrid score.
// topK <= 0 uses the configured default.
func (c *Client) Retrieve(ctx context.Context, query string, topK int) (passages []Passage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	if topK <= 0 {
		topK = c.retrievalSvc.DefaultTopK()
	}
	results, err := c.retrievalSvc.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return toPassages(results), nil
}

// Answer generates an answer grounded on retrieved passages.
// Requires WithGenerator; topK <= 0 uses the configured default.
func (c *Client) Answer(ctx context.Context, question string, topK int) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer", start, err) }()

	if c.answerSvc == nil {
		return Answer{}, errors.New("scriptrag: generator not configured (use WithGenerator)")
	}
	res, err := c.answerSvc.Answer(ctx, question, topK)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}
	return Answer{Answer: res.Answer, Passages: toPassages(res.Passages)}, nil
}

// ChunkCount returns the number of indexed chunks.
func (c *Client) ChunkCount(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count", start, err) }()

	n, err = c.ingestSvc.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Clear removes all indexed chunks and the index itself.
func (c *Client) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear", start, err) }()

	if err = c.ingestSvc.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

func toPassages(results []domain.ScoredResult) []Passage {
	if len(results) == 0 {
		return nil
	}
	passages := make([]Passage, len(results))
	for i, r := range results {
		passages[i] = Passage{
			ID:           r.ID,
			Text:         r.Text,
			VectorScore:  r.VectorScore,
			KeywordScore: r.KeywordScore,
			HybridScore:  r.HybridScore,
			Payload:      r.Payload,
		}
	}
	return passages
}

// embedderAdapter wraps the public Embedder to satisfy the internal consumer
// interfaces.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.inner.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator for the answer service.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, system, user string) (string, error) {
	return a.inner.Generate(ctx, system, user)
}

// noopEmbedder returns an error on use (no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"scriptrag: embedder not configured (use WithEmbedder)",
	)
}

func (noopEmbedder) BatchEmbed(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchEmbeddingResult{}, errors.New(
		"scriptrag: embedder not configured (use WithEmbedder)",
	)
}
