package keywords

import (
	"math"
	"strconv"
	"strings"
)

const (
	defaultTopN             = 10
	defaultNumericTolerance = 1
)

// Extractor extracts keyword sets and scores keyword overlap. It is pure and
// safe for concurrent use; each call allocates its own working buffers.
type Extractor struct {
	tok       Tokenizer
	topN      int
	tolerance int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTopN sets how many terms each salience signal contributes.
func WithTopN(n int) Option {
	return func(e *Extractor) { e.topN = n }
}

// WithNumericTolerance sets the maximum integer distance for the
// numeric-proximity match rule. The default of 1 matches phrasing drift like
// 第3幕 vs 第4幕; it is configurable because the right tolerance is
// domain-dependent.
func WithNumericTolerance(n int) Option {
	return func(e *Extractor) { e.tolerance = int64(n) }
}

// New creates an extractor over the given tokenizer.
func New(tok Tokenizer, opts ...Option) *Extractor {
	e := &Extractor{tok: tok, topN: defaultTopN, tolerance: defaultNumericTolerance}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the union of all keyword signals over text, filtered to
// terms of at least two runes or purely numeric tokens of any length.
func (e *Extractor) Extract(text string) map[string]struct{} {
	tokens := e.tok.Tokenize(text)
	union := make(map[string]struct{})

	for _, t := range topTFIDF(tokens, e.topN) {
		union[t] = struct{}{}
	}
	for _, t := range topTextRank(tokens, e.topN) {
		union[t] = struct{}{}
	}
	for _, t := range tokens {
		if isNameLike(t) || isLocation(t) || isTemporal(t) || isQuantity(t) || isAction(t) {
			union[t] = struct{}{}
		}
	}
	for _, t := range digitRuns(text) {
		union[t] = struct{}{}
	}
	for _, t := range latinRuns(text) {
		union[t] = struct{}{}
	}

	for t := range union {
		if runeLen(t) < 2 && !isNumeric(t) {
			delete(union, t)
		}
	}
	return union
}

// Score measures how well text covers queryKeywords, in [0,1]. Per query
// keyword: 1.0 for an exact element of the text's keyword set; otherwise 0.5
// when a keyword of three or more runes is a substring of (or contains) some
// text keyword. Numeric keywords additionally earn 0.8 when a numeric text
// keyword is within the configured integer tolerance; that rule accumulates
// on top of the others. An empty query set scores 0.0.
func (e *Extractor) Score(queryKeywords map[string]struct{}, text string) float64 {
	if len(queryKeywords) == 0 {
		return 0.0
	}

	textKeywords := e.Extract(text)

	total := 0.0
	for kw := range queryKeywords {
		if _, ok := textKeywords[kw]; ok {
			total += 1.0
		} else if runeLen(kw) >= 3 && hasSubstringMatch(kw, textKeywords) {
			total += 0.5
		}
		if isNumeric(kw) && hasNumericNeighbor(kw, textKeywords, e.tolerance) {
			total += 0.8
		}
	}

	return math.Min(total/float64(len(queryKeywords)), 1.0)
}

func hasSubstringMatch(kw string, textKeywords map[string]struct{}) bool {
	for t := range textKeywords {
		if strings.Contains(t, kw) || strings.Contains(kw, t) {
			return true
		}
	}
	return false
}

func hasNumericNeighbor(kw string, textKeywords map[string]struct{}, tolerance int64) bool {
	a, err := strconv.ParseInt(kw, 10, 64)
	if err != nil {
		return false
	}
	for t := range textKeywords {
		if !isNumeric(t) {
			continue
		}
		b, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			continue
		}
		d := a - b
		if d < 0 {
			d = -d
		}
		if d <= tolerance {
			return true
		}
	}
	return false
}

// isNumeric reports whether s is a non-empty run of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitRuns returns all maximal ASCII digit runs in text, verbatim.
func digitRuns(text string) []string {
	return scanRuns(text, func(r rune) bool { return r >= '0' && r <= '9' }, false)
}

// latinRuns returns all maximal Latin-letter runs in text, lowercased.
func latinRuns(text string) []string {
	return scanRuns(text, func(r rune) bool {
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
	}, true)
}

func scanRuns(text string, member func(rune) bool, lower bool) []string {
	var runs []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			s := string(current)
			if lower {
				s = strings.ToLower(s)
			}
			runs = append(runs, s)
			current = current[:0]
		}
	}
	for _, r := range text {
		if member(r) {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()
	return runs
}
