// Package chat handles free-form conversation: anything that is neither a
// structured agenda question nor a book question.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/gemba-cloud/gembot/internal/domain"
)

// Service prompts the language model with the assistant persona and the
// rendered agenda, then the user's message.
type Service struct {
	gen         domain.Generator
	basePrompt  string
	agendaCtx   string
	temperature float32
}

// New creates a chat service.
func New(gen domain.Generator, basePrompt, agendaCtx string, temperature float32) *Service {
	return &Service{
		gen:         gen,
		basePrompt:  basePrompt,
		agendaCtx:   agendaCtx,
		temperature: temperature,
	}
}

// Reply generates a conversational answer to message.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.ErrEmptyQuestion
	}

	out, err := s.gen.Generate(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: s.basePrompt},
		{Role: domain.RoleUser, Content: s.agendaCtx},
		{Role: domain.RoleUser, Content: message},
	}, s.temperature)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return out, nil
}
