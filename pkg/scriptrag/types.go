package scriptrag

import "context"

// EmbeddingResult is a single embedding with token accounting.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds embeddings for a batch of texts, in input order.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Implementations wrap an embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// Generator produces a chat completion for a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Passage is a retrieved chunk with its hybrid score breakdown.
type Passage struct {
	ID           string
	Text         string
	VectorScore  float64
	KeywordScore float64
	HybridScore  float64
	Payload      map[string]string
}

// Chunk is one sentence-aligned piece of a split document.
type Chunk struct {
	Index   int
	Text    string
	CharLen int
}

// IngestStats summarizes a completed ingestion.
type IngestStats struct {
	ChunkCount  int
	TotalRunes  int
	AvgChunkLen int
	TotalTokens int
}

// Answer is a generated answer with the passages it was grounded on.
type Answer struct {
	Answer   string
	Passages []Passage
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}
