// Package index holds the in-memory vector index: (chunk, embedding) pairs
// with brute-force cosine retrieval. The linear scan is deliberate — one
// book yields at most a few thousand chunks, far below the point where an
// ANN structure pays off.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/gemba-cloud/gembot/internal/domain"
	"github.com/gemba-cloud/gembot/internal/domain/chunk"
)

type entry struct {
	id     string
	chunk  chunk.Chunk
	vector []float32
}

// Store is an append-only in-memory vector index. Queries may run
// concurrently; inserts take the write lock and are expected to complete
// before querying starts.
type Store struct {
	mu      sync.RWMutex
	dim     int // fixed by the first insert
	entries []entry
	ids     map[string]struct{}
}

// New creates an empty index.
func New() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// Insert appends one chunk with its embedding. The first insert fixes the
// index dimensionality. A failed insert leaves the store unchanged.
func (s *Store) Insert(id string, c chunk.Chunk, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[id]; exists {
		return fmt.Errorf("id %q: %w", id, domain.ErrDuplicateChunk)
	}
	if s.dim != 0 && len(vector) != s.dim {
		return fmt.Errorf("got %d dimensions, index has %d: %w", len(vector), s.dim, domain.ErrDimensionMismatch)
	}
	if s.dim == 0 {
		s.dim = len(vector)
	}

	s.ids[id] = struct{}{}
	s.entries = append(s.entries, entry{id: id, chunk: c, vector: vector})
	return nil
}

// Query returns the k stored chunks most similar to vector, by descending
// cosine similarity. Equal scores rank earlier-inserted entries first.
// k larger than the store size returns everything.
func (s *Store) Query(vector []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, domain.ErrIndexNotReady
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("got %d dimensions, index has %d: %w", len(vector), s.dim, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	scored := make([]domain.ScoredChunk, len(s.entries))
	for i, e := range s.entries {
		scored[i] = domain.ScoredChunk{
			ID:    e.id,
			Score: cosineSimilarity(vector, e.vector),
			Text:  e.chunk.Text,
		}
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Len reports the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset drops all entries, allowing a fresh ingest.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = 0
	s.entries = nil
	s.ids = make(map[string]struct{})
}

// cosineSimilarity returns dot(a,b)/(|a|*|b|), or 0 when either vector has
// zero norm. Degenerate embeddings score low instead of dividing by zero.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
