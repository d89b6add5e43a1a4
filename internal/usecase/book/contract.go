package book

import (
	"github.com/gemba-cloud/gembot/internal/domain"
	"github.com/gemba-cloud/gembot/internal/domain/chunk"
)

// Index is the vector store contract used by the orchestrator.
type Index interface {
	Insert(id string, c chunk.Chunk, vector []float32) error
	Query(vector []float32, k int) ([]domain.ScoredChunk, error)
	Len() int
	Reset()
}
