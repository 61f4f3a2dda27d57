// Package normalize prepares extracted document text for sentence chunking.
// Converter output (docx/markdown extraction) tends to carry stray spaces,
// ASCII punctuation inside CJK prose, and hard-wrapped lines; all of those
// confuse a punctuation-driven sentence splitter.
package normalize

import "strings"

// asciiToCJK maps ASCII punctuation to full-width equivalents.
var asciiToCJK = map[rune]rune{
	',': '，',
	'.': '。',
	'?': '？',
	'!': '！',
	':': '：',
	';': '；',
	'(': '（',
	')': '）',
	'[': '【',
	']': '】',
}

// keepNewlineAfter are runes after which a line break is a real sentence
// boundary. Breaks anywhere else are hard wraps and get dropped.
var keepNewlineAfter = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '；': {}, '…': {},
	'”': {}, '’': {}, '」': {}, '』': {}, '"': {}, '\'': {},
}

// Text normalizes extracted document text: strips half- and full-width
// spaces, maps ASCII punctuation to CJK equivalents (decimal points inside
// numbers are left alone), keeps line breaks only after sentence-final
// punctuation, and collapses blank runs.
func Text(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	var prev rune
	for i, r := range runes {
		switch {
		case r == ' ' || r == '　' || r == '\t' || r == '\r' || r == '*':
			continue
		case r == '\n':
			if _, ok := keepNewlineAfter[prev]; ok && prev != '\n' {
				b.WriteRune('\n')
				prev = '\n'
			}
			continue
		}

		if mapped, ok := asciiToCJK[r]; ok {
			if r == '.' && isASCIIDigit(prevRune(runes, i)) && isASCIIDigit(nextRune(runes, i)) {
				// decimal point, not a sentence terminator
				b.WriteRune(r)
				prev = r
				continue
			}
			b.WriteRune(mapped)
			prev = mapped
			continue
		}

		b.WriteRune(r)
		prev = r
	}

	return b.String()
}

func prevRune(runes []rune, i int) rune {
	if i == 0 {
		return 0
	}
	return runes[i-1]
}

func nextRune(runes []rune, i int) rune {
	if i+1 >= len(runes) {
		return 0
	}
	return runes[i+1]
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
