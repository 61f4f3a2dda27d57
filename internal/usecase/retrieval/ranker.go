package retrieval

import (
	"sort"

	"github.com/peregrine-labs/scriptrag/internal/domain"
)

// Weights holds the hybrid fusion weights. They are not required to sum to 1;
// callers control the trade-off between semantic and keyword evidence.
type Weights struct {
	Vector  float64
	Keyword float64
}

// rank computes hybrid scores, filters by the inclusive threshold, sorts by
// hybrid score descending, and truncates to topK. The sort is stable so that
// candidates with equal scores keep their input (vector-similarity) order.
// topK <= 0 yields no results.
func rank(candidates []domain.ScoredResult, w Weights, threshold float64, topK int) []domain.ScoredResult {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}

	kept := make([]domain.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		c.HybridScore = c.VectorScore*w.Vector + c.KeywordScore*w.Keyword
		if c.HybridScore >= threshold {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].HybridScore > kept[j].HybridScore
	})

	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}
