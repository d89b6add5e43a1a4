// Package book is the RAG orchestrator: it ingests the reference book into
// the vector index and answers questions grounded on retrieved excerpts.
package book

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/domain"
	"github.com/gemba-cloud/gembot/internal/domain/chunk"
	"github.com/gemba-cloud/gembot/internal/metrics"
)

// chunkSeparator joins retrieved excerpts inside the grounding prompt.
const chunkSeparator = "\n---\n"

// Config holds the orchestrator's fixed settings.
type Config struct {
	// ChunkWords and OverlapWords drive the splitter.
	ChunkWords   int
	OverlapWords int
	// TopK is the default retrieval depth when the caller passes k <= 0.
	TopK int
	// Temperature for answer generation; low values keep answers grounded.
	Temperature float32
	// SystemPrompt is the fixed grounding instruction.
	SystemPrompt string
}

// Service drives ingestion and question answering.
type Service struct {
	index    Index
	embedder domain.Embedder
	gen      domain.Generator
	cfg      Config
	logger   *zap.Logger

	// ingestMu serializes ingestion; queries only take the index read lock.
	ingestMu sync.Mutex
	ingested bool
}

// New creates a book service.
func New(index Index, embedder domain.Embedder, gen domain.Generator, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		index:    index,
		embedder: embedder,
		gen:      gen,
		cfg:      cfg,
		logger:   logger,
	}
}

// Ingest chunks the document, embeds every chunk, and indexes the pairs.
// Returns the number of chunks indexed. A second ingest is rejected with
// domain.ErrAlreadyIngested until Reset is called: silent re-ingestion
// would duplicate entries and double the embedding bill.
func (s *Service) Ingest(ctx context.Context, text string) (int, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	if strings.TrimSpace(text) == "" {
		return 0, domain.ErrEmptyDocument
	}
	if s.ingested {
		return 0, domain.ErrAlreadyIngested
	}

	chunks, err := chunk.Split(text, s.cfg.ChunkWords, s.cfg.OverlapWords)
	if err != nil {
		return 0, fmt.Errorf("split document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batch, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	for i, c := range chunks {
		id := fmt.Sprintf("chunk-%d", c.Index)
		if err := s.index.Insert(id, c, batch.Embeddings[i]); err != nil {
			return 0, fmt.Errorf("index %s: %w", id, err)
		}
	}

	s.ingested = true
	metrics.IndexedChunks.Set(float64(s.index.Len()))
	s.logger.Info("Book ingested",
		zap.Int("chunks", len(chunks)),
		zap.Int("embedding_tokens", batch.TotalTokens),
	)
	return len(chunks), nil
}

// Reset drops the index so the book can be ingested again.
func (s *Service) Reset() {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	s.index.Reset()
	s.ingested = false
	metrics.IndexedChunks.Set(0)
}

// Answer embeds the question, retrieves the k most similar chunks, and asks
// the generator for an answer grounded on them. Provider errors propagate
// unchanged; retry policy belongs to the caller.
func (s *Service) Answer(ctx context.Context, question string, k int) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.ErrEmptyQuestion
	}
	if k <= 0 {
		k = s.cfg.TopK
	}

	embedded, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.index.Query(embedded.Embedding, k)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	metrics.RetrievalsTotal.Inc()

	excerpts := make([]string, len(hits))
	for i, h := range hits {
		excerpts[i] = h.Text
	}

	prompt := fmt.Sprintf("Contexto:\n%s\n\nPregunta: %s", strings.Join(excerpts, chunkSeparator), question)
	answer, err := s.gen.Generate(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: s.cfg.SystemPrompt},
		{Role: domain.RoleUser, Content: prompt},
	}, s.cfg.Temperature)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

// Ready reports whether the index can serve queries.
func (s *Service) Ready() bool {
	return s.index.Len() > 0
}
