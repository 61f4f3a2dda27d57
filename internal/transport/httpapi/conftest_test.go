package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	"github.com/peregrine-labs/scriptrag/internal/usecase/answer"
	healthuc "github.com/peregrine-labs/scriptrag/internal/usecase/health"
	"github.com/peregrine-labs/scriptrag/internal/usecase/ingest"
)

type mockRetrieval struct {
	retrieveFn func(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error)
	topK       int
}

func (m *mockRetrieval) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, query, topK)
	}
	return nil, nil
}

func (m *mockRetrieval) DefaultTopK() int {
	if m.topK > 0 {
		return m.topK
	}
	return 5
}

type mockIngest struct {
	ingestFn func(ctx context.Context, doc domain.Document) (ingest.Stats, error)
	chunkFn  func(text string, override chunker.Config) ([]domain.Chunk, error)
	countFn  func(ctx context.Context) (int, error)
	clearFn  func(ctx context.Context) error
}

func (m *mockIngest) Ingest(ctx context.Context, doc domain.Document) (ingest.Stats, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, doc)
	}
	return ingest.Stats{}, nil
}

func (m *mockIngest) Chunk(text string, override chunker.Config) ([]domain.Chunk, error) {
	if m.chunkFn != nil {
		return m.chunkFn(text, override)
	}
	return nil, nil
}

func (m *mockIngest) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockIngest) Clear(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

type mockAnswer struct {
	answerFn func(ctx context.Context, question string, topK int) (answer.Result, error)
}

func (m *mockAnswer) Answer(ctx context.Context, question string, topK int) (answer.Result, error) {
	if m.answerFn != nil {
		return m.answerFn(ctx, question, topK)
	}
	return answer.Result{}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	if m.report.Status == "" {
		return healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK},
		}
	}
	return m.report
}

type testServer struct {
	retrieval *mockRetrieval
	ingest    *mockIngest
	answer    *mockAnswer
	health    *mockHealth
	router    chi.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		retrieval: &mockRetrieval{},
		ingest:    &mockIngest{},
		answer:    &mockAnswer{},
		health:    &mockHealth{},
	}
	srv := NewServer(ts.retrieval, ts.ingest, ts.answer, ts.health, zap.NewNop())
	ts.router = chi.NewRouter()
	srv.RegisterRoutes(ts.router)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, http.NoBody)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, r)
	return rr
}
