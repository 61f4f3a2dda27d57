package httpapi

import "github.com/peregrine-labs/scriptrag/internal/domain"

// ErrorCode identifies an error class in API responses.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeEmptyQuery             ErrorCode = "empty_query"
	CodeInvalidChunking        ErrorCode = "invalid_chunking"
	CodeIndexNotFound          ErrorCode = "index_not_found"
	CodeIndexUnavailable       ErrorCode = "index_unavailable"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeChatProviderError      ErrorCode = "chat_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// ResultItem is one ranked passage.
type ResultItem struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	VectorScore  float64           `json:"vector_score"`
	KeywordScore float64           `json:"keyword_score"`
	HybridScore  float64           `json:"hybrid_score"`
	Payload      map[string]string `json:"payload,omitempty"`
}

// RetrieveResponse is the body of a successful retrieval.
type RetrieveResponse struct {
	Results []ResultItem `json:"results"`
	Total   int          `json:"total"`
}

// IngestRequest is the body of POST /v1/documents.
type IngestRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// IngestResponse reports ingestion statistics.
type IngestResponse struct {
	Chunks      int `json:"chunks"`
	TotalRunes  int `json:"total_runes"`
	AvgChunkLen int `json:"avg_chunk_len"`
	Tokens      int `json:"tokens"`
}

// ChunkRequest is the body of POST /v1/chunks. Zero sizing fields fall back
// to the server's configured chunking parameters.
type ChunkRequest struct {
	Text    string `json:"text"`
	MaxSize int    `json:"max_size,omitempty"`
	MinSize int    `json:"min_size,omitempty"`
	Overlap int    `json:"overlap,omitempty"`
}

// ChunkItem is one preview chunk.
type ChunkItem struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	CharLen int    `json:"char_length"`
}

// ChunkResponse is the body of a successful chunk preview.
type ChunkResponse struct {
	Chunks []ChunkItem `json:"chunks"`
	Total  int         `json:"total"`
}

// AnswerRequest is the body of POST /v1/answer.
type AnswerRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// AnswerResponse carries the generated answer and its grounding passages.
type AnswerResponse struct {
	Answer   string       `json:"answer"`
	Passages []ResultItem `json:"passages"`
}

// IndexInfoResponse is the body of GET /v1/index.
type IndexInfoResponse struct {
	Chunks int `json:"chunks"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func chunkItems(chunks []domain.Chunk) []ChunkItem {
	items := make([]ChunkItem, len(chunks))
	for i, c := range chunks {
		items[i] = ChunkItem{Index: c.Index, Text: c.Text, CharLen: c.CharLen}
	}
	return items
}

func resultItems(results []domain.ScoredResult) []ResultItem {
	items := make([]ResultItem, len(results))
	for i, r := range results {
		items[i] = ResultItem{
			ID:           r.ID,
			Text:         r.Text,
			VectorScore:  r.VectorScore,
			KeywordScore: r.KeywordScore,
			HybridScore:  r.HybridScore,
			Payload:      r.Payload,
		}
	}
	return items
}
