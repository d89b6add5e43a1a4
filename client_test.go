package gembot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dbMemory "github.com/gemba-cloud/gembot/internal/db/memory"
	"github.com/gemba-cloud/gembot/internal/domain"
)

// --- Mocks ---

type fakeAssistant struct {
	reply string
	last  string
}

func (f *fakeAssistant) Reply(_ context.Context, message string) (string, error) {
	f.last = message
	return f.reply, nil
}

type fakeBook struct {
	chunks   int
	answer   string
	ingested string
	resets   int
}

func (f *fakeBook) Ingest(_ context.Context, text string) (int, error) {
	f.ingested = text
	return f.chunks, nil
}

func (f *fakeBook) Answer(_ context.Context, _ string, _ int) (string, error) {
	return f.answer, nil
}

func (f *fakeBook) Reset()      { f.resets++ }
func (f *fakeBook) Ready() bool { return f.chunks > 0 }

func testClient(book *fakeBook, bookPath string) *Client {
	return &Client{
		store:     dbMemory.NewStore(),
		assistant: &fakeAssistant{reply: "hola"},
		book:      book,
		bookPath:  bookPath,
	}
}

// --- Tests ---

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error without api key")
	}
	if !strings.Contains(err.Error(), "api key") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MemoryDefaults(t *testing.T) {
	client, err := New(context.Background(), WithProvider("sk-test", ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if client.BookReady() {
		t.Error("index should start empty")
	}
	if _, err := client.IngestBook(context.Background()); err == nil {
		t.Error("expected error without a configured book")
	}
}

func TestNew_LoadsAgenda(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agenda.json")
	data := `{"2025-07-10": [{"hora": "08:00", "actividad": "Yoga", "direccion": "Sala 1", "maps": ""}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write agenda: %v", err)
	}

	client, err := New(context.Background(),
		WithProvider("sk-test", ""),
		WithAgenda(path, 2025),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.Close()
}

func TestNew_BadAgendaPath(t *testing.T) {
	_, err := New(context.Background(),
		WithProvider("sk-test", ""),
		WithAgenda("/does/not/exist.json", 2025),
	)
	if err == nil {
		t.Fatal("expected error for missing agenda file")
	}
}

func TestReply_Delegates(t *testing.T) {
	assistant := &fakeAssistant{reply: "mañana tenés yoga"}
	client := &Client{store: dbMemory.NewStore(), assistant: assistant}
	defer client.Close()

	got, err := client.Reply(context.Background(), "¿qué hay mañana?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "mañana tenés yoga" {
		t.Errorf("reply = %q", got)
	}
	if assistant.last != "¿qué hay mañana?" {
		t.Errorf("assistant received %q", assistant.last)
	}
}

func TestIngestBook_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.txt")
	if err := os.WriteFile(path, []byte("un libro corto"), 0o600); err != nil {
		t.Fatalf("write book: %v", err)
	}

	book := &fakeBook{chunks: 1}
	client := testClient(book, path)
	defer client.Close()

	n, err := client.IngestBook(context.Background())
	if err != nil {
		t.Fatalf("IngestBook: %v", err)
	}
	if n != 1 {
		t.Errorf("chunks = %d, want 1", n)
	}
	if book.ingested != "un libro corto" {
		t.Errorf("ingested %q", book.ingested)
	}
}

func TestResetBook(t *testing.T) {
	book := &fakeBook{}
	client := testClient(book, "")
	defer client.Close()

	client.ResetBook()
	if book.resets != 1 {
		t.Errorf("resets = %d, want 1", book.resets)
	}
}

func TestErrors_AreReexportedSentinels(t *testing.T) {
	if !errors.Is(ErrEmptyQuestion, domain.ErrEmptyQuestion) {
		t.Error("ErrEmptyQuestion should match the domain sentinel")
	}
	if !errors.Is(ErrIndexNotReady, domain.ErrIndexNotReady) {
		t.Error("ErrIndexNotReady should match the domain sentinel")
	}
}
