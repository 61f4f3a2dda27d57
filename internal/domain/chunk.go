package domain

// Document is a raw text owned by the caller before chunking.
type Document struct {
	ID     string
	Source string
	Text   string
}

// Chunk is a contiguous, bounded-length excerpt of a document. Index is the
// 0-based position in the chunk sequence; CharLen counts runes, matching the
// character domain of the splitter.
type Chunk struct {
	Index   int
	Text    string
	CharLen int
}
