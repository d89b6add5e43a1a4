// Package notes records user reflections and lists them back.
package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gemba-cloud/gembot/internal/domain"
)

// Repository is the persistence contract for notes.
type Repository interface {
	Append(ctx context.Context, userID string, note domain.Note) error
	List(ctx context.Context, userID string) ([]domain.Note, error)
}

// Service validates and stores notes.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New creates a notes service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record stores a new note for userID and returns it with id and timestamp
// assigned.
func (s *Service) Record(ctx context.Context, userID, text string) (domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Note{}, fmt.Errorf("record note: %w", domain.ErrEmptyDocument)
	}

	note := domain.Note{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, userID, note); err != nil {
		return domain.Note{}, fmt.Errorf("record note: %w", err)
	}
	return note, nil
}

// List returns the user's notes in insertion order.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Note, error) {
	notes, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}
