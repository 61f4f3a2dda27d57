package domain

// Candidate is a passage returned by the vector index as a nearest-neighbor
// match, prior to lexical re-ranking. VectorScore is a similarity nominally
// in [0,1] (cosine). Payload carries opaque per-chunk metadata.
type Candidate struct {
	ID          string
	Text        string
	VectorScore float64
	Payload     map[string]string
}

// ScoredResult is a candidate after hybrid scoring. Created per query and
// discarded after the response is returned; never persisted.
type ScoredResult struct {
	ID           string
	Text         string
	VectorScore  float64
	KeywordScore float64
	HybridScore  float64
	Payload      map[string]string
}
