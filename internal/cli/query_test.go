package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	_, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("query")
	if err == nil {
		t.Fatal("expected error for missing argument")
	}
	if !strings.Contains(err.Error(), "accepts 1 arg(s)") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestQueryCmd_PrintsPassages(t *testing.T) {
	retrieval, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	retrieval.results = []domain.ScoredResult{
		{ID: "chunk:1", Text: "程聿怀第一次出场。", VectorScore: 0.91, KeywordScore: 0.5, HybridScore: 0.787},
	}

	out, err := execute("query", "程聿怀")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "chunk:1") {
		t.Errorf("expected chunk id in output, got:\n%s", out)
	}
	if !strings.Contains(out, "程聿怀第一次出场。") {
		t.Errorf("expected passage text in output, got:\n%s", out)
	}
	if !strings.Contains(out, "0.787") {
		t.Errorf("expected hybrid score in output, got:\n%s", out)
	}
}

func TestQueryCmd_TopKFlag(t *testing.T) {
	retrieval, _, _, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { queryTopK = 0 }()

	if _, err := execute("query", "-k", "3", "第几场"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieval.gotTopK != 3 {
		t.Errorf("topK = %d, want 3", retrieval.gotTopK)
	}
}

func TestQueryCmd_DefaultTopK(t *testing.T) {
	retrieval, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	retrieval.topK = 7
	if _, err := execute("query", "第几场"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieval.gotTopK != 7 {
		t.Errorf("topK = %d, want default 7", retrieval.gotTopK)
	}
}

func TestQueryCmd_NoResults(t *testing.T) {
	_, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("query", "不存在的角色")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No passages found") {
		t.Errorf("expected empty-result message, got:\n%s", out)
	}
}

func TestQueryCmd_JSONOutput(t *testing.T) {
	retrieval, _, _, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { queryJSON = false }()

	retrieval.results = []domain.ScoredResult{
		{ID: "chunk:1", Text: "第一场", HybridScore: 0.7},
	}

	out, err := execute("query", "--json", "第一场")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"ID"`) || !strings.Contains(out, `"HybridScore"`) {
		t.Errorf("expected JSON fields in output, got:\n%s", out)
	}
}

func TestQueryCmd_ServiceError(t *testing.T) {
	retrieval, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	retrieval.err = domain.ErrEmptyQuery
	_, err := execute("query", "  ")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "query failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestQueryCmd_ServiceNotConfigured(t *testing.T) {
	_, _, _, _, cleanup := setupTestServices()
	defer cleanup()
	retrievalSvc = nil

	_, err := execute("query", "test")
	if err == nil {
		t.Fatal("expected error when service missing")
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("短句", 10); got != "短句" {
		t.Errorf("snippet = %q, want unchanged", got)
	}
	long := strings.Repeat("场", 15)
	got := snippet(long, 10)
	if len([]rune(got)) != 11 { // 10 runes + ellipsis
		t.Errorf("snippet len = %d runes, want 11", len([]rune(got)))
	}
}
