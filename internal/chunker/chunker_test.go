package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{MaxSize: 800, MinSize: 700, Overlap: 100}, false},
		{"overlap zero", Config{MaxSize: 800, MinSize: 700, Overlap: 0}, true},
		{"overlap equals min", Config{MaxSize: 800, MinSize: 100, Overlap: 100}, true},
		{"min above max", Config{MaxSize: 100, MinSize: 200, Overlap: 50}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && !errors.Is(err, domain.ErrInvalidChunkConfig) {
				t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSplit_InvalidConfig(t *testing.T) {
	_, err := Split("今天天气很好。", Config{MaxSize: 10, MinSize: 5, Overlap: 5})
	if !errors.Is(err, domain.ErrInvalidChunkConfig) {
		t.Fatalf("expected ErrInvalidChunkConfig, got %v", err)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	chunks, err := Split("", Config{MaxSize: 10, MinSize: 5, Overlap: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("今天天气很好。明天会下雨！后天")
	want := []string{"今天天气很好。", "明天会下雨！", "后天"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	text := "今天天气很好。明天会下雨！后天放晴？"
	chunks, err := Split(text, Config{MaxSize: 12, MinSize: 6, Overlap: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"今天天气很好。", "明天会下雨！", "后天放晴？"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, c.Text, want[i])
		}
		if c.Index != i {
			t.Errorf("chunk %d: index %d", i, c.Index)
		}
		if c.CharLen != len([]rune(c.Text)) {
			t.Errorf("chunk %d: char len %d, want %d", i, c.CharLen, len([]rune(c.Text)))
		}
	}
}

func TestSplit_OverlapSeed(t *testing.T) {
	// Six short sentences of 3 runes each; chunks close at >=5 runes with a
	// 3-rune overlap budget, so each chunk after the first starts with the
	// previous chunk's last sentence.
	text := strings.Repeat("他走。", 6)
	chunks, err := Split(text, Config{MaxSize: 9, MinSize: 5, Overlap: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		tail := string(prev[len(prev)-3:])
		if !strings.HasPrefix(chunks[i].Text, tail) {
			t.Errorf("chunk %d %q does not start with previous tail %q", i, chunks[i].Text, tail)
		}
	}
}

func TestSplit_NoOverlapWhenTailTooLong(t *testing.T) {
	// Every sentence is longer than the overlap budget, so chunks share nothing.
	text := "今天天气很好。明天会下雨！后天放晴？"
	chunks, err := Split(text, Config{MaxSize: 12, MinSize: 6, Overlap: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(chunks); i++ {
		if strings.HasPrefix(chunks[i].Text, chunks[i-1].Text) {
			t.Errorf("chunk %d unexpectedly overlaps previous", i)
		}
	}
}

func TestSplit_OversizedSentence(t *testing.T) {
	long := strings.Repeat("怀", 30) + "。"
	chunks, err := Split(long, Config{MaxSize: 10, MinSize: 5, Overlap: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if chunks[0].Text != long {
		t.Errorf("oversized sentence must stay whole, got %q", chunks[0].Text)
	}
}

func TestSplit_ChunksAreContiguousExcerpts(t *testing.T) {
	text := "程聿怀走进剧场。天色已晚！台上空无一人？他坐了下来。幕布缓缓拉开…灯光亮起；第一幕开始了。"
	chunks, err := Split(text, Config{MaxSize: 20, MinSize: 10, Overlap: 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if !strings.Contains(text, c.Text) {
			t.Errorf("chunk %d %q is not a contiguous excerpt", i, c.Text)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("程聿怀走进剧场。天色已晚！", 20)
	cfg := Config{MaxSize: 40, MinSize: 25, Overlap: 13}

	first, err := Split(text, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Split(text, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical input and config must produce identical chunks")
	}
}
