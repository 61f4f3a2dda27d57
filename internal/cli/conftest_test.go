package cli

import (
	"context"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	answeruc "github.com/peregrine-labs/scriptrag/internal/usecase/answer"
	healthuc "github.com/peregrine-labs/scriptrag/internal/usecase/health"
	ingestuc "github.com/peregrine-labs/scriptrag/internal/usecase/ingest"
)

type mockRetrieval struct {
	results []domain.ScoredResult
	err     error
	topK    int
	gotTopK int
}

func (m *mockRetrieval) Retrieve(_ context.Context, _ string, topK int) ([]domain.ScoredResult, error) {
	m.gotTopK = topK
	return m.results, m.err
}

func (m *mockRetrieval) DefaultTopK() int {
	if m.topK > 0 {
		return m.topK
	}
	return 5
}

type mockIngest struct {
	stats       ingestuc.Stats
	chunks      []domain.Chunk
	count       int
	err         error
	gotSource   string
	gotOverride chunker.Config
	cleared     bool
}

func (m *mockIngest) Ingest(_ context.Context, doc domain.Document) (ingestuc.Stats, error) {
	m.gotSource = doc.Source
	return m.stats, m.err
}

func (m *mockIngest) Chunk(_ string, override chunker.Config) ([]domain.Chunk, error) {
	m.gotOverride = override
	return m.chunks, m.err
}

func (m *mockIngest) Count(_ context.Context) (int, error) { return m.count, m.err }

func (m *mockIngest) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

type mockAnswer struct {
	result answeruc.Result
	err    error
}

func (m *mockAnswer) Answer(_ context.Context, _ string, _ int) (answeruc.Result, error) {
	return m.result, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// setupTestServices swaps in mocks and returns a cleanup that restores the
// previous services.
func setupTestServices() (retrieval *mockRetrieval, ingest *mockIngest, answer *mockAnswer, health *mockHealth, cleanup func()) {
	prevRetrieval := retrievalSvc
	prevIngest := ingestSvc
	prevAnswer := answerSvc
	prevHealth := healthSvc
	prevConnect := connectFn

	retrieval = &mockRetrieval{}
	ingest = &mockIngest{}
	answer = &mockAnswer{}
	health = &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK},
	}}

	retrievalSvc = retrieval
	ingestSvc = ingest
	answerSvc = answer
	healthSvc = health
	connectFn = nil

	cleanup = func() {
		retrievalSvc = prevRetrieval
		ingestSvc = prevIngest
		answerSvc = prevAnswer
		healthSvc = prevHealth
		connectFn = prevConnect
	}
	return retrieval, ingest, answer, health, cleanup
}
