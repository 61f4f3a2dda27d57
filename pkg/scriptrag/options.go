package scriptrag

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	embedder  Embedder
	generator Generator

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	chunkMaxSize int
	chunkMinSize int
	chunkOverlap int

	topK             int
	scoreThreshold   float64
	vectorWeight     float64
	keywordWeight    float64
	numericTolerance int
	lexicon          []string

	maxContextRunes int
	embedBatchSize  int
	embedWorkers    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithAuth sets the Redis ACL username and logical database.
func WithAuth(username string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.db = db
	})
}

// WithEmbedder sets the text embedding provider. Required for ingestion and
// retrieval.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the chat completion provider. Required for Answer.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithVectorDimensions sets the embedding dimension. Defaults to 1024.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithChunking sets chunk sizing in runes.
// Defaults: max=500, min=200, overlap=50.
func WithChunking(maxSize, minSize, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkMaxSize = maxSize
		c.chunkMinSize = minSize
		c.chunkOverlap = overlap
	})
}

// WithTopK sets the default number of results per retrieval. Default: 5.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithScoreWeights sets the vector and keyword weights for hybrid scoring.
// Defaults: vector=0.7, keyword=0.3.
func WithScoreWeights(vector, keyword float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorWeight = vector
		c.keywordWeight = keyword
	})
}

// WithScoreThreshold sets the minimum hybrid score for a result to be
// returned. Default: 0 (no filtering).
func WithScoreThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.scoreThreshold = t
	})
}

// WithLexicon seeds the keyword tokenizer with domain terms (character names,
// recurring phrases) that should be matched as whole units.
func WithLexicon(terms ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.lexicon = append(c.lexicon, terms...)
	})
}

// WithNumericTolerance sets the tolerance for near-miss numeric keyword
// matches. Default: 1.
func WithNumericTolerance(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.numericTolerance = n
	})
}

// WithMaxContextRunes bounds the prompt context assembled for answer
// generation. Default: 2000.
func WithMaxContextRunes(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxContextRunes = n
	})
}

// WithEmbedBatch sets the batch size and worker count for bulk embedding
// during ingestion. Defaults: size=100, workers=4.
func WithEmbedBatch(size, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedBatchSize = size
		c.embedWorkers = workers
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
