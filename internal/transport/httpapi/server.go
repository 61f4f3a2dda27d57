package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	"github.com/peregrine-labs/scriptrag/internal/usecase/answer"
	healthuc "github.com/peregrine-labs/scriptrag/internal/usecase/health"
	"github.com/peregrine-labs/scriptrag/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

type retrievalService interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error)
	DefaultTopK() int
}

type ingestService interface {
	Ingest(ctx context.Context, doc domain.Document) (ingest.Stats, error)
	Chunk(text string, override chunker.Config) ([]domain.Chunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type answerService interface {
	Answer(ctx context.Context, question string, topK int) (answer.Result, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server exposes the retrieval pipeline over HTTP.
type Server struct {
	retrieval     retrievalService
	ingest        ingestService
	answer        answerService
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieval retrievalService,
	ing ingestService,
	ans answerService,
	health healthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		retrieval: retrieval,
		ingest:    ing,
		answer:    ans,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeEmptyQuery),
		sentinelHandler(domain.ErrInvalidChunkConfig, http.StatusBadRequest, CodeInvalidChunking),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrChatProviderError, http.StatusBadGateway, CodeChatProviderError),
	}
	return s
}

// RegisterRoutes mounts all API routes on the given router. Middleware is the
// caller's concern and must be attached before this call.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/v1/retrieve", s.Retrieve)
	r.Post("/v1/documents", s.IngestDocument)
	r.Post("/v1/chunks", s.ChunkDocument)
	r.Post("/v1/answer", s.Answer)
	r.Get("/v1/index", s.IndexInfo)
	r.Delete("/v1/index", s.ClearIndex)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.retrieval.DefaultTopK()
	}

	results, err := s.retrieval.Retrieve(r.Context(), req.Query, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RetrieveResponse{
		Results: resultItems(results),
		Total:   len(results),
	})
}

// IngestDocument handles POST /v1/documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "text is required")
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "source is required")
		return
	}

	stats, err := s.ingest.Ingest(r.Context(), domain.Document{Source: req.Source, Text: req.Text})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		Chunks:      stats.ChunkCount,
		TotalRunes:  stats.TotalRunes,
		AvgChunkLen: stats.AvgChunkLen,
		Tokens:      stats.TotalTokens,
	})
}

// ChunkDocument handles POST /v1/chunks: a chunk-only preview that splits
// the text without embedding or indexing it.
func (s *Server) ChunkDocument(w http.ResponseWriter, r *http.Request) {
	var req ChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "text is required")
		return
	}

	chunks, err := s.ingest.Chunk(req.Text, chunker.Config{
		MaxSize: req.MaxSize,
		MinSize: req.MinSize,
		Overlap: req.Overlap,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChunkResponse{
		Chunks: chunkItems(chunks),
		Total:  len(chunks),
	})
}

// Answer handles POST /v1/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.answer.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{
		Answer:   result.Answer,
		Passages: resultItems(result.Passages),
	})
}

// IndexInfo handles GET /v1/index.
func (s *Server) IndexInfo(w http.ResponseWriter, r *http.Request) {
	count, err := s.ingest.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IndexInfoResponse{Chunks: count})
}

// ClearIndex handles DELETE /v1/index.
func (s *Server) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Clear(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidChunkConfig,
		domain.ErrIndexNotFound,
		domain.ErrIndexUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrChatProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
