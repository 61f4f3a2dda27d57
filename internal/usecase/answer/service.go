package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

const (
	defaultMaxContextRunes = 2000

	systemPrompt = "你是一个专业的剧本分析助手，能够根据提供的剧本内容准确回答相关问题。"

	noContextAnswer = "未能在剧本中找到与问题相关的内容。"
)

// Config holds answer generation parameters.
type Config struct {
	MaxContextRunes int
}

// Result is a generated answer together with the passages it was grounded on.
type Result struct {
	Answer   string
	Passages []domain.ScoredResult
}

// Service answers questions over the indexed corpus: retrieve passages, build
// a context-bounded prompt, call the chat model.
type Service struct {
	retriever Retriever
	gen       Generator
	cfg       Config
	logger    *zap.Logger
}

// New creates an answer service.
func New(retriever Retriever, gen Generator, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxContextRunes <= 0 {
		cfg.MaxContextRunes = defaultMaxContextRunes
	}
	return &Service{retriever: retriever, gen: gen, cfg: cfg, logger: logger}
}

// Answer retrieves passages for the question and generates an answer grounded
// on them. topK <= 0 uses the retriever's configured default. When retrieval
// finds nothing, a fixed answer is returned without calling the model.
func (s *Service) Answer(ctx context.Context, question string, topK int) (Result, error) {
	if topK <= 0 {
		topK = s.retriever.DefaultTopK()
	}

	passages, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		return Result{Answer: noContextAnswer}, nil
	}

	prompt := buildPrompt(question, passages, s.cfg.MaxContextRunes)

	text, err := s.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Debug("answer generated",
		zap.Int("passages", len(passages)),
		zap.Int("answer_runes", len([]rune(text))),
	)

	return Result{Answer: text, Passages: passages}, nil
}

// buildPrompt assembles passages into the user prompt, stopping at the first
// passage that would push the combined context past maxRunes.
func buildPrompt(question string, passages []domain.ScoredResult, maxRunes int) string {
	var ctxBuilder strings.Builder
	used := 0
	for _, p := range passages {
		l := len([]rune(p.Text))
		if used+l > maxRunes {
			break
		}
		ctxBuilder.WriteString(p.Text)
		ctxBuilder.WriteString("\n\n")
		used += l
	}

	return fmt.Sprintf(`基于以下剧本内容回答用户问题。请确保回答准确、相关，并尽可能引用原文内容。

剧本内容：
%s

用户问题：%s

请根据上述剧本内容回答问题。如果问题无法从给定内容中找到答案，请明确说明。`,
		strings.TrimSpace(ctxBuilder.String()), question)
}
