// Package assistant routes each incoming message to one of the three
// handling paths: structured agenda lookup, book question answering, or
// free-form chat.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/logger"
)

// AgendaResponder answers structured agenda questions.
type AgendaResponder interface {
	Lookup(message string) (reply string, ok bool)
}

// BookAnswerer answers questions grounded on the reference book.
type BookAnswerer interface {
	Answer(ctx context.Context, question string, k int) (string, error)
}

// ChatResponder handles everything else.
type ChatResponder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Service is the message router.
type Service struct {
	agenda      AgendaResponder
	book        BookAnswerer
	chat        ChatResponder
	bookCommand string
}

// New creates the router. bookCommand is the prefix that forces the book
// path, e.g. "/libro".
func New(agenda AgendaResponder, book BookAnswerer, chat ChatResponder, bookCommand string) *Service {
	return &Service{
		agenda:      agenda,
		book:        book,
		chat:        chat,
		bookCommand: bookCommand,
	}
}

// Reply dispatches message and returns the assistant's answer. Routing is
// per-request; no state crosses messages.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	log := logger.FromContext(ctx)

	if question, ok := s.bookQuestion(message); ok {
		if question == "" {
			return fmt.Sprintf("Usá el comando así: %s ¿tu pregunta sobre el libro?", s.bookCommand), nil
		}
		log.Debug("routing to book", zap.Int("question_len", len(question)))
		return s.book.Answer(ctx, question, 0)
	}

	if reply, ok := s.agenda.Lookup(message); ok {
		log.Debug("routing to agenda")
		return reply, nil
	}

	log.Debug("routing to chat")
	return s.chat.Reply(ctx, message)
}

func (s *Service) bookQuestion(message string) (string, bool) {
	if !strings.HasPrefix(message, s.bookCommand) {
		return "", false
	}
	rest := message[len(s.bookCommand):]
	// Reject prefixes glued to a longer word ("/librotro").
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
