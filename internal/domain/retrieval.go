package domain

// ScoredChunk is a single retrieval hit: a chunk's text plus its cosine
// similarity against the query vector.
type ScoredChunk struct {
	ID    string
	Score float32
	Text  string
}
