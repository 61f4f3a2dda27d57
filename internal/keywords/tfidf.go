package keywords

import (
	"math"
	"sort"
)

// stopTokens are function words excluded from salience ranking. The list
// covers the bigram function words the n-gram tokenizer actually produces
// plus common English stop words for Latin runs.
var stopTokens = map[string]struct{}{
	"什么": {}, "怎么": {}, "这个": {}, "那个": {}, "这些": {}, "那些": {},
	"我们": {}, "你们": {}, "他们": {}, "她们": {}, "自己": {},
	"因为": {}, "所以": {}, "但是": {}, "如果": {}, "虽然": {}, "然后": {},
	"没有": {}, "可以": {}, "知道": {}, "时候": {}, "已经": {}, "还是": {},
	"就是": {}, "不是": {}, "一个": {}, "一些": {}, "这样": {}, "那样": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {}, "is": {},
	"and": {}, "or": {}, "it": {}, "for": {}, "on": {}, "with": {},
}

// topTFIDF returns up to n tokens ranked by term frequency weighted with a
// length-based IDF surrogate: no corpus statistics exist at query time, and
// longer tokens are rarer in the n-gram stream, so weight grows with token
// length. Single-rune tokens and stop words are excluded. Ties break
// lexicographically to keep output deterministic.
func topTFIDF(tokens []string, n int) []string {
	if n <= 0 {
		return nil
	}

	freq := make(map[string]int)
	for _, tok := range tokens {
		if !rankable(tok) {
			continue
		}
		freq[tok]++
	}

	type weighted struct {
		token  string
		weight float64
	}
	ranked := make([]weighted, 0, len(freq))
	for tok, tf := range freq {
		w := float64(tf) * (1 + math.Log(float64(runeLen(tok))))
		ranked = append(ranked, weighted{token: tok, weight: w})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].token < ranked[j].token
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.token
	}
	return out
}

// rankable filters tokens eligible for salience ranking: at least two runes,
// not a stop word.
func rankable(tok string) bool {
	if runeLen(tok) < 2 {
		return false
	}
	_, stop := stopTokens[tok]
	return !stop
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
