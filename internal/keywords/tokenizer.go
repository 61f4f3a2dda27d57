// Package keywords extracts salient lexical terms from queries and chunks and
// scores keyword overlap between them. It unions several heterogeneous
// signals (statistical salience, graph salience, rule-based entity detection,
// raw numeric and Latin runs) because short queries often hinge on a single
// proper name or number that any one extractor would drop.
package keywords

import (
	"strings"
	"unicode"
)

// Tokenizer is the word-segmentation capability the extractor builds on.
// Proper segmentation is language-specific and external to this package; the
// in-tree NgramTokenizer is the fallback used when no segmenter is wired in.
type Tokenizer interface {
	Tokenize(text string) []string
}

// NgramTokenizer approximates CJK segmentation without a dictionary model.
// Han runs are emitted as overlapping bigrams and trigrams (single-rune runs
// as themselves); Latin runs are emitted lowercased and digit runs verbatim.
// An optional lexicon of known multi-rune words (character names, venues) is
// matched greedily inside Han runs and emitted alongside the n-grams.
type NgramTokenizer struct {
	lexicon   map[string]struct{}
	maxLexLen int
}

// NewNgramTokenizer creates the fallback tokenizer. lexicon entries shorter
// than two runes are ignored.
func NewNgramTokenizer(lexicon ...string) *NgramTokenizer {
	t := &NgramTokenizer{lexicon: make(map[string]struct{})}
	for _, w := range lexicon {
		n := len([]rune(w))
		if n < 2 {
			continue
		}
		t.lexicon[w] = struct{}{}
		if n > t.maxLexLen {
			t.maxLexLen = n
		}
	}
	return t
}

// Tokenize splits text into tokens, left to right. Output order is
// deterministic for a given input.
func (t *NgramTokenizer) Tokenize(text string) []string {
	var tokens []string

	flushHan := func(run []rune) {
		if len(run) == 0 {
			return
		}
		if len(run) == 1 {
			tokens = append(tokens, string(run))
			return
		}
		for i := range run {
			if w, n := t.longestLexiconMatch(run[i:]); n > 0 {
				tokens = append(tokens, w)
			}
			if i+2 <= len(run) {
				tokens = append(tokens, string(run[i:i+2]))
			}
			if i+3 <= len(run) {
				tokens = append(tokens, string(run[i:i+3]))
			}
		}
	}

	var han []rune
	var word []rune
	var digits []rune

	flushWord := func() {
		if len(word) > 0 {
			tokens = append(tokens, strings.ToLower(string(word)))
			word = word[:0]
		}
	}
	flushDigits := func() {
		if len(digits) > 0 {
			tokens = append(tokens, string(digits))
			digits = digits[:0]
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			flushDigits()
			han = append(han, r)
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			flushHan(han)
			han = han[:0]
			flushDigits()
			word = append(word, r)
		case r >= '0' && r <= '9':
			flushHan(han)
			han = han[:0]
			flushWord()
			digits = append(digits, r)
		default:
			flushHan(han)
			han = han[:0]
			flushWord()
			flushDigits()
		}
	}
	flushHan(han)
	flushWord()
	flushDigits()

	return tokens
}

// longestLexiconMatch returns the longest lexicon word that prefixes run.
func (t *NgramTokenizer) longestLexiconMatch(run []rune) (string, int) {
	if t.maxLexLen == 0 {
		return "", 0
	}
	limit := t.maxLexLen
	if limit > len(run) {
		limit = len(run)
	}
	for n := limit; n >= 2; n-- {
		w := string(run[:n])
		if _, ok := t.lexicon[w]; ok {
			return w, n
		}
	}
	return "", 0
}
