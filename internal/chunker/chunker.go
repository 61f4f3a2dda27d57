// Package chunker splits document text into overlapping, sentence-aligned
// chunks sized for independent embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

// terminals close a sentence. The newline is included so dialogue lines and
// stage directions that lack punctuation still break cleanly.
var terminals = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '…': {}, '；': {}, '\n': {},
}

// Config holds chunk sizing in runes.
type Config struct {
	MaxSize int
	MinSize int
	Overlap int
}

// Validate enforces 0 < Overlap < MinSize <= MaxSize.
func (c Config) Validate() error {
	if c.Overlap <= 0 || c.Overlap >= c.MinSize || c.MinSize > c.MaxSize {
		return fmt.Errorf("%w: need 0 < overlap < min <= max, got max=%d min=%d overlap=%d",
			domain.ErrInvalidChunkConfig, c.MaxSize, c.MinSize, c.Overlap)
	}
	return nil
}

// SplitSentences segments text into sentences, each including its terminal
// rune. A trailing run without terminal punctuation is emitted as a final
// sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current []rune

	for _, r := range text {
		current = append(current, r)
		if _, ok := terminals[r]; ok {
			sentences = append(sentences, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, string(current))
	}
	return sentences
}

// Split chunks text by accumulating whole sentences. A chunk closes once it
// reaches MaxSize runes, or MinSize runes when more sentences remain. The
// trailing sentences of a closed chunk, up to Overlap runes of them, seed the
// next chunk. A single sentence longer than MaxSize becomes its own oversized
// chunk; sentences are never split.
func Split(text string, cfg Config) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	sentences := SplitSentences(text)

	var chunks []domain.Chunk
	var current []string
	size := 0

	emit := func() {
		joined := ""
		for _, s := range current {
			joined += s
		}
		chunks = append(chunks, domain.Chunk{
			Index:   len(chunks),
			Text:    joined,
			CharLen: size,
		})
	}

	for i, sentence := range sentences {
		current = append(current, sentence)
		size += runeLen(sentence)

		shouldClose := size >= cfg.MaxSize ||
			(size >= cfg.MinSize && i < len(sentences)-1)
		if !shouldClose {
			continue
		}

		emit()

		// Seed the next chunk with whole trailing sentences that fit the
		// overlap budget, preserving original order.
		var overlap []string
		overlapLen := 0
		for j := len(current) - 1; j >= 0; j-- {
			l := runeLen(current[j])
			if overlapLen+l > cfg.Overlap {
				break
			}
			overlap = append([]string{current[j]}, overlap...)
			overlapLen += l
		}
		current = overlap
		size = overlapLen
	}

	if len(current) > 0 {
		emit()
	}

	return chunks, nil
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
