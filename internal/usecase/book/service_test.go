package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/domain"
	"github.com/gemba-cloud/gembot/internal/repository/index"
)

// --- Mocks ---

// fakeEmbedder derives a deterministic 2-d vector from the first word of the
// text, so retrieval order in tests is fully predictable.
type fakeEmbedder struct {
	vectors    map[string][]float32
	batchCalls int
	embedCalls int
	err        error
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return []float32{1, 1}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.embedCalls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vectorFor(text)}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchCalls++
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

type fakeGenerator struct {
	lastMessages []domain.Message
	lastTemp     float32
	reply        string
	err          error
}

func (f *fakeGenerator) Generate(_ context.Context, messages []domain.Message, temp float32) (string, error) {
	f.lastMessages = messages
	f.lastTemp = temp
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newService(emb *fakeEmbedder, gen *fakeGenerator) *Service {
	return New(index.New(), emb, gen, Config{
		ChunkWords:   3,
		OverlapWords: 1,
		TopK:         3,
		Temperature:  0.3,
		SystemPrompt: "Usa el contexto del libro para responder.",
	}, zap.NewNop())
}

// --- Tests ---

func TestIngest_CountsChunks(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := newService(emb, &fakeGenerator{})

	n, err := svc.Ingest(context.Background(), "A cat sat. A dog ran. A bird flew.")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n != 4 {
		t.Errorf("chunks indexed: got %d, want 4", n)
	}
	if emb.batchCalls != 1 {
		t.Errorf("batch embed calls: got %d, want 1", emb.batchCalls)
	}
	if !svc.Ready() {
		t.Error("service not ready after ingest")
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	svc := newService(&fakeEmbedder{}, &fakeGenerator{})

	_, err := svc.Ingest(context.Background(), "   \n ")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument", err)
	}
}

func TestIngest_EmptyDocumentAfterIngest(t *testing.T) {
	svc := newService(&fakeEmbedder{}, &fakeGenerator{})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "uno dos tres cuatro"); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Validation comes before the already-ingested guard.
	_, err := svc.Ingest(ctx, "")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument", err)
	}
}

func TestIngest_SecondIngestRejected(t *testing.T) {
	svc := newService(&fakeEmbedder{}, &fakeGenerator{})
	ctx := context.Background()

	n, err := svc.Ingest(ctx, "uno dos tres cuatro")
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	_, err = svc.Ingest(ctx, "otro texto distinto")
	if !errors.Is(err, domain.ErrAlreadyIngested) {
		t.Fatalf("got %v, want ErrAlreadyIngested", err)
	}

	// Store must be unchanged by the rejected ingest.
	if got := svc.index.Len(); got != n {
		t.Errorf("index size changed: got %d, want %d", got, n)
	}
}

func TestIngest_ResetAllowsReingest(t *testing.T) {
	svc := newService(&fakeEmbedder{}, &fakeGenerator{})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "uno dos tres"); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	svc.Reset()
	if svc.Ready() {
		t.Error("ready after reset")
	}
	if _, err := svc.Ingest(ctx, "uno dos tres"); err != nil {
		t.Fatalf("ingest after reset: %v", err)
	}
}

func TestIngest_ProviderErrorPropagates(t *testing.T) {
	emb := &fakeEmbedder{err: domain.ErrProviderUnavailable}
	svc := newService(emb, &fakeGenerator{})

	_, err := svc.Ingest(context.Background(), "uno dos tres")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	svc := newService(&fakeEmbedder{}, &fakeGenerator{})

	_, err := svc.Answer(context.Background(), "  ", 3)
	if !errors.Is(err, domain.ErrEmptyQuestion) {
		t.Fatalf("got %v, want ErrEmptyQuestion", err)
	}
}

func TestAnswer_IndexNotReady(t *testing.T) {
	svc := newService(&fakeEmbedder{}, &fakeGenerator{})

	_, err := svc.Answer(context.Background(), "¿de qué trata?", 3)
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Fatalf("got %v, want ErrIndexNotReady", err)
	}
}

func TestAnswer_TopKGrounding(t *testing.T) {
	// Ten one-word chunks with controlled vectors; the question vector is
	// closest to "alfa", then "beta", then "gamma".
	words := []string{"alfa", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa"}
	vectors := map[string][]float32{
		"alfa":  {1, 0},
		"beta":  {0.9, 0.1},
		"gamma": {0.8, 0.2},
	}
	for _, w := range words[3:] {
		vectors[w] = []float32{0, 1}
	}
	question := "¿cuál es el tema?"
	vectors[question] = []float32{1, 0}

	emb := &fakeEmbedder{vectors: vectors}
	gen := &fakeGenerator{reply: "respuesta final"}
	svc := New(index.New(), emb, gen, Config{
		ChunkWords:   1,
		OverlapWords: 0,
		TopK:         3,
		Temperature:  0.3,
		SystemPrompt: "instrucción",
	}, zap.NewNop())

	if _, err := svc.Ingest(context.Background(), strings.Join(words, " ")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	answer, err := svc.Answer(context.Background(), question, 3)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "respuesta final" {
		t.Errorf("answer: %q", answer)
	}
	if gen.lastTemp != 0.3 {
		t.Errorf("temperature: %v", gen.lastTemp)
	}

	if len(gen.lastMessages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(gen.lastMessages))
	}
	if gen.lastMessages[0].Role != domain.RoleSystem || gen.lastMessages[0].Content != "instrucción" {
		t.Errorf("system message: %+v", gen.lastMessages[0])
	}

	userMsg := gen.lastMessages[1].Content
	// Exactly the 3 best chunks, in descending-similarity order.
	wantCtx := "Contexto:\nalfa\n---\nbeta\n---\ngamma\n\n"
	if !strings.HasPrefix(userMsg, wantCtx) {
		t.Errorf("prompt context wrong:\n%s", userMsg)
	}
	if !strings.HasSuffix(userMsg, "Pregunta: "+question) {
		t.Errorf("question not verbatim at end:\n%s", userMsg)
	}
	for _, w := range words[3:] {
		if strings.Contains(userMsg, w) {
			t.Errorf("prompt leaked chunk outside top-3: %s", w)
		}
	}
}

func TestAnswer_GeneratorErrorPropagates(t *testing.T) {
	emb := &fakeEmbedder{}
	gen := &fakeGenerator{err: fmt.Errorf("api: %w", domain.ErrProviderQuota)}
	svc := newService(emb, gen)

	if _, err := svc.Ingest(context.Background(), "uno dos tres cuatro cinco"); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	_, err := svc.Answer(context.Background(), "pregunta", 2)
	if !errors.Is(err, domain.ErrProviderQuota) {
		t.Fatalf("got %v, want ErrProviderQuota", err)
	}
}
