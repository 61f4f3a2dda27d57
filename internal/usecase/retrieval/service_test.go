package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

func TestRetrieve_EmptyQuery(t *testing.T) {
	emb := &mockEmbedder{}
	svc := newTestService(t, emb, &mockIndex{}, &mockScorer{}, defaultConfig())

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Retrieve(context.Background(), q, 5)
		if !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", q, err)
		}
	}
	if emb.calls != 0 {
		t.Errorf("embedder must not run for empty queries, got %d calls", emb.calls)
	}
}

func TestRetrieve_TopKZero(t *testing.T) {
	emb := &mockEmbedder{}
	svc := newTestService(t, emb, &mockIndex{}, &mockScorer{}, defaultConfig())

	got, err := svc.Retrieve(context.Background(), "剧场", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no results, got %v", got)
	}
	if emb.calls != 0 {
		t.Error("embedder must not run for topK=0")
	}
}

func TestRetrieve_OverFetches(t *testing.T) {
	idx := &mockIndex{}
	svc := newTestService(t, &mockEmbedder{}, idx, &mockScorer{}, defaultConfig())

	if _, err := svc.Retrieve(context.Background(), "剧场", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.lastTopK != 15 {
		t.Errorf("expected fetch k=15 (topK*3), got %d", idx.lastTopK)
	}
}

func TestRetrieve_FetchMultiplierConfigurable(t *testing.T) {
	idx := &mockIndex{}
	cfg := defaultConfig()
	cfg.FetchMultiplier = 5
	svc := newTestService(t, &mockEmbedder{}, idx, &mockScorer{}, cfg)

	if _, err := svc.Retrieve(context.Background(), "剧场", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.lastTopK != 20 {
		t.Errorf("expected fetch k=20, got %d", idx.lastTopK)
	}
}

func TestRetrieve_HybridScoring(t *testing.T) {
	idx := &mockIndex{candidates: []domain.Candidate{
		{ID: "c1", Text: "程聿怀走进剧场。", VectorScore: 0.6},
	}}
	sc := &mockScorer{scores: map[string]float64{"程聿怀走进剧场。": 1.0}}
	svc := newTestService(t, &mockEmbedder{}, idx, sc, defaultConfig())

	got, err := svc.Retrieve(context.Background(), "程聿怀", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	r := got[0]
	if r.VectorScore != 0.6 || r.KeywordScore != 1.0 {
		t.Errorf("unexpected component scores: %+v", r)
	}
	if math.Abs(r.HybridScore-0.72) > 1e-9 {
		t.Errorf("expected hybrid 0.72, got %v", r.HybridScore)
	}
}

func TestRetrieve_KeywordPromotesCandidate(t *testing.T) {
	// Vector order alone would keep "semantic" on top; keyword evidence
	// promotes "literal" past it.
	idx := &mockIndex{candidates: []domain.Candidate{
		{ID: "semantic", Text: "他在夜里离开。", VectorScore: 0.9},
		{ID: "literal", Text: "程聿怀走进剧场。", VectorScore: 0.8},
	}}
	sc := &mockScorer{scores: map[string]float64{"程聿怀走进剧场。": 1.0}}
	cfg := defaultConfig()
	cfg.VectorWeight = 0.5
	cfg.KeywordWeight = 0.5
	svc := newTestService(t, &mockEmbedder{}, idx, sc, cfg)

	got, err := svc.Retrieve(context.Background(), "程聿怀", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "literal" {
		t.Errorf("expected keyword match promoted first, got %s", got[0].ID)
	}
}

func TestRetrieve_ThresholdFilters(t *testing.T) {
	idx := &mockIndex{candidates: []domain.Candidate{
		{ID: "strong", Text: "a", VectorScore: 0.9},
		{ID: "weak", Text: "b", VectorScore: 0.1},
	}}
	cfg := defaultConfig()
	cfg.VectorWeight = 1.0
	cfg.KeywordWeight = 0
	cfg.ScoreThreshold = 0.5
	svc := newTestService(t, &mockEmbedder{}, idx, &mockScorer{}, cfg)

	got, err := svc.Retrieve(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "strong" {
		t.Errorf("expected only strong candidate, got %v", got)
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	idx := &mockIndex{}
	svc := newTestService(t, emb, idx, &mockScorer{}, defaultConfig())

	got, err := svc.Retrieve(context.Background(), "剧场", 5)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if got != nil {
		t.Error("no partial results on failure")
	}
	if idx.calls != 0 {
		t.Error("index must not run when embedding fails")
	}
}

func TestRetrieve_IndexError(t *testing.T) {
	idx := &mockIndex{err: domain.ErrIndexUnavailable}
	svc := newTestService(t, &mockEmbedder{}, idx, &mockScorer{}, defaultConfig())

	got, err := svc.Retrieve(context.Background(), "剧场", 5)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected wrapped index error, got %v", err)
	}
	if got != nil {
		t.Error("no partial results on failure")
	}
}

func TestRetrieve_NoCandidates(t *testing.T) {
	sc := &mockScorer{}
	svc := newTestService(t, &mockEmbedder{}, &mockIndex{}, sc, defaultConfig())

	got, err := svc.Retrieve(context.Background(), "剧场", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected no results, got %v", got)
	}
	if sc.extractCalls != 0 {
		t.Error("keyword extraction must be skipped with no candidates")
	}
}

func TestRetrieve_ExtractsQueryOnce(t *testing.T) {
	idx := &mockIndex{candidates: []domain.Candidate{
		{ID: "a", Text: "x", VectorScore: 0.5},
		{ID: "b", Text: "y", VectorScore: 0.4},
		{ID: "c", Text: "z", VectorScore: 0.3},
	}}
	sc := &mockScorer{}
	svc := newTestService(t, &mockEmbedder{}, idx, sc, defaultConfig())

	if _, err := svc.Retrieve(context.Background(), "剧场", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.extractCalls != 1 {
		t.Errorf("expected 1 query extraction, got %d", sc.extractCalls)
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	idx := &mockIndex{candidates: []domain.Candidate{
		{ID: "a", Text: "x", VectorScore: 0.5},
		{ID: "b", Text: "y", VectorScore: 0.5},
	}}
	svc := newTestService(t, &mockEmbedder{}, idx, &mockScorer{}, defaultConfig())

	first, err := svc.Retrieve(context.Background(), "剧场", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Retrieve(context.Background(), "剧场", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}
