// Package gembot embeds the retreat assistant into a Go program: agenda
// lookup, book question answering over an in-memory vector index, free
// chat, voice transcription, and note keeping, all behind one client.
//
//	client, _ := gembot.New(ctx,
//	    gembot.WithProvider(os.Getenv("OPENAI_API_KEY"), ""),
//	    gembot.WithBook("laloux.pdf"),
//	    gembot.WithAgenda("agenda.json", 2025),
//	)
//	defer client.Close()
//
//	client.IngestBook(ctx)
//	reply, _ := client.Reply(ctx, "¿qué hay mañana a la mañana?")
package gembot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/db"
	dbMemory "github.com/gemba-cloud/gembot/internal/db/memory"
	dbRedis "github.com/gemba-cloud/gembot/internal/db/redis"
	"github.com/gemba-cloud/gembot/internal/domain"
	domagenda "github.com/gemba-cloud/gembot/internal/domain/agenda"
	agendarepo "github.com/gemba-cloud/gembot/internal/repository/agenda"
	documentrepo "github.com/gemba-cloud/gembot/internal/repository/document"
	"github.com/gemba-cloud/gembot/internal/repository/embcache"
	indexrepo "github.com/gemba-cloud/gembot/internal/repository/index"
	notesrepo "github.com/gemba-cloud/gembot/internal/repository/notes"
	openaiTransport "github.com/gemba-cloud/gembot/internal/transport/openai"
	agendauc "github.com/gemba-cloud/gembot/internal/usecase/agenda"
	assistantuc "github.com/gemba-cloud/gembot/internal/usecase/assistant"
	bookuc "github.com/gemba-cloud/gembot/internal/usecase/book"
	chatuc "github.com/gemba-cloud/gembot/internal/usecase/chat"
	notesuc "github.com/gemba-cloud/gembot/internal/usecase/notes"
)

const defaultReadinessTimeout = 10 * time.Second

// Note is a stored user reflection.
type Note = domain.Note

// Internal interfaces so tests can swap the services.
type assistantUseCase interface {
	Reply(ctx context.Context, message string) (string, error)
}

type bookUseCase interface {
	Ingest(ctx context.Context, text string) (int, error)
	Answer(ctx context.Context, question string, k int) (string, error)
	Reset()
	Ready() bool
}

type notesUseCase interface {
	Record(ctx context.Context, userID, text string) (domain.Note, error)
	List(ctx context.Context, userID string) ([]domain.Note, error)
}

type transcriberClient interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Client is the gembot SDK entry point.
type Client struct {
	store       db.Store
	assistant   assistantUseCase
	book        bookUseCase
	notes       notesUseCase
	transcriber transcriberClient
	bookPath    string
}

// New creates a gembot Client. The provided context is used for the
// initial store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:             "memory",
		chatModel:          "gpt-4o-mini",
		embeddingModel:     "text-embedding-3-small",
		transcriptionModel: "whisper-1",
		chunkWords:         200,
		overlapWords:       50,
		topK:               3,
		bookTemp:           0.3,
		bookPrompt:         "Usá el siguiente contexto del libro para responder de forma clara y concreta.",
		bookCommand:        "/libro",
		chatPrompt:         "Sos un asistente amable de un retiro de meditación. Respondé de forma breve y cálida en español.",
		chatTemp:           0.7,
		logger:             zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.apiKey == "" {
		return nil, errors.New("gembot: provider api key required (use WithProvider)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("gembot: store not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return dbMemory.NewStore(), nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
			DB:       cfg.redisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("gembot: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("gembot: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	provCfg := &openaiTransport.Config{
		APIKey:  cfg.apiKey,
		BaseURL: cfg.baseURL,
		Logger:  cfg.logger,
	}
	chatClient := openaiTransport.NewChatClient(provCfg, cfg.chatModel, cfg.transcriptionModel)

	var embedder domain.Embedder = openaiTransport.NewEmbedder(provCfg, cfg.embeddingModel, 0)
	embedder = embcache.New(embedder, store, 0, nil, cfg.logger)

	year := cfg.agendaYear
	if year == 0 {
		year = time.Now().Year()
	}
	var schedule domagenda.Schedule
	if cfg.agendaPath != "" {
		var err error
		schedule, err = agendarepo.Load(cfg.agendaPath, year)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("gembot: load agenda: %w", err)
		}
	}
	agendaSvc := agendauc.New(schedule, year, time.Now)

	bookSvc := bookuc.New(indexrepo.New(), embedder, chatClient, bookuc.Config{
		ChunkWords:   cfg.chunkWords,
		OverlapWords: cfg.overlapWords,
		TopK:         cfg.topK,
		Temperature:  cfg.bookTemp,
		SystemPrompt: cfg.bookPrompt,
	}, cfg.logger)

	chatSvc := chatuc.New(chatClient, cfg.chatPrompt, agendaSvc.Context(), cfg.chatTemp)

	return &Client{
		store:       store,
		assistant:   assistantuc.New(agendaSvc, bookSvc, chatSvc, cfg.bookCommand),
		book:        bookSvc,
		notes:       notesuc.New(notesrepo.New(store)),
		transcriber: chatClient,
		bookPath:    cfg.bookPath,
	}, nil
}

// Reply routes a user message to agenda lookup, book QA, or free chat and
// returns the assistant's answer.
func (c *Client) Reply(ctx context.Context, message string) (string, error) {
	return c.assistant.Reply(ctx, message)
}

// AskBook answers a question grounded on the ingested book. k <= 0 uses
// the configured retrieval depth.
func (c *Client) AskBook(ctx context.Context, question string, k int) (string, error) {
	return c.book.Answer(ctx, question, k)
}

// IngestBook loads the configured book file, chunks it, embeds the chunks,
// and builds the index. Returns the number of chunks indexed.
func (c *Client) IngestBook(ctx context.Context) (int, error) {
	if c.bookPath == "" {
		return 0, errors.New("gembot: no book configured (use WithBook)")
	}
	text, err := documentrepo.Extract(c.bookPath)
	if err != nil {
		return 0, fmt.Errorf("gembot: load book: %w", err)
	}
	return c.book.Ingest(ctx, text)
}

// IngestBookText ingests raw text instead of the configured file.
func (c *Client) IngestBookText(ctx context.Context, text string) (int, error) {
	return c.book.Ingest(ctx, text)
}

// ResetBook clears the index so the book can be ingested again.
func (c *Client) ResetBook() {
	c.book.Reset()
}

// BookReady reports whether the book index holds at least one chunk.
func (c *Client) BookReady() bool {
	return c.book.Ready()
}

// Transcribe turns a voice note into text. The filename extension tells
// the provider the audio format.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return c.transcriber.Transcribe(ctx, audio, filename)
}

// RecordNote stores a reflection for userID.
func (c *Client) RecordNote(ctx context.Context, userID, text string) (Note, error) {
	return c.notes.Record(ctx, userID, text)
}

// ListNotes returns userID's notes in insertion order.
func (c *Client) ListNotes(ctx context.Context, userID string) ([]Note, error) {
	return c.notes.List(ctx, userID)
}

// Close releases the underlying store connection.
func (c *Client) Close() {
	c.store.Close()
}
