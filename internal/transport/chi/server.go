// Package chi exposes the assistant over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/domain"
	healthuc "github.com/gemba-cloud/gembot/internal/usecase/health"
)

// maxAudioBytes caps voice note uploads (the transcription API rejects
// larger files anyway).
const maxAudioBytes = 25 << 20

// Assistant routes a free-text message to an answer.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

// BookService answers and (re)builds the book index.
type BookService interface {
	Ingest(ctx context.Context, text string) (int, error)
	Answer(ctx context.Context, question string, k int) (string, error)
	Reset()
}

// NotesService records and lists user notes.
type NotesService interface {
	Record(ctx context.Context, userID, text string) (domain.Note, error)
	List(ctx context.Context, userID string) ([]domain.Note, error)
}

// Transcriber turns a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// BookSource loads the book text for ingestion.
type BookSource func() (string, error)

// Server holds the HTTP handlers for the assistant API.
type Server struct {
	assistant     Assistant
	book          BookService
	bookSource    BookSource
	notes         NotesService
	transcriber   Transcriber
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	assistant Assistant,
	book BookService,
	bookSource BookSource,
	notes NotesService,
	transcriber Transcriber,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		assistant:   assistant,
		book:        book,
		bookSource:  bookSource,
		notes:       notes,
		transcriber: transcriber,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, codeEmptyDocument),
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, codeEmptyQuestion),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrAlreadyIngested, http.StatusConflict, codeAlreadyIngested),
		sentinelHandler(domain.ErrDuplicateChunk, http.StatusConflict, codeDuplicateChunk),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, codeIndexNotReady),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderUnavailable),
		sentinelHandler(domain.ErrProviderRejected, http.StatusBadGateway, codeProviderRejected),
		sentinelHandler(domain.ErrProviderQuota, http.StatusPaymentRequired, codeProviderQuota),
	}
	return s
}

// RegisterRoutes mounts all API routes on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/v1/messages", s.PostMessage)
	r.Post("/v1/book/questions", s.PostBookQuestion)
	r.Post("/v1/book/ingest", s.PostBookIngest)
	r.Post("/v1/transcripts", s.PostTranscript)
	r.Post("/v1/notes", s.PostNote)
	r.Get("/v1/notes", s.ListNotes)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// PostMessage handles POST /v1/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message is required")
		return
	}

	reply, err := s.assistant.Reply(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// PostBookQuestion handles POST /v1/book/questions.
func (s *Server) PostBookQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := s.book.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// PostBookIngest handles POST /v1/book/ingest. The reset query flag clears
// the index before ingesting.
func (s *Server) PostBookIngest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("reset") == "true" {
		s.book.Reset()
	}

	text, err := s.bookSource()
	if err != nil {
		s.logger.Error("load book source", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "could not load book source")
		return
	}

	chunks, err := s.book.Ingest(r.Context(), text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"chunks": chunks})
}

// PostTranscript handles POST /v1/transcripts. The audio file is
// transcribed and the transcript is routed like a typed message.
func (s *Server) PostTranscript(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart body: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "audio file is required")
		return
	}
	defer file.Close()

	transcript, err := s.transcriber.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	reply, err := s.assistant.Reply(r.Context(), transcript)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"transcript": transcript,
		"reply":      reply,
	})
}

// PostNote handles POST /v1/notes.
func (s *Server) PostNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}

	note, err := s.notes.Record(r.Context(), req.UserID, req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// ListNotes handles GET /v1/notes.
func (s *Server) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}

	notes, err := s.notes.List(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if notes == nil {
		notes = []domain.Note{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Note{"items": notes})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
