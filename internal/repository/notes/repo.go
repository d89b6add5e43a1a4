// Package notes persists user reflections as JSON lists in the KV store.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gemba-cloud/gembot/internal/db"
	"github.com/gemba-cloud/gembot/internal/domain"
)

const keyPrefix = "gembot:notes:"

// store is the consumer interface for note persistence.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repository stores one JSON-encoded note list per user.
type Repository struct {
	store store
}

// New creates a notes repository on top of a KV store.
func New(s store) *Repository {
	return &Repository{store: s}
}

// Append adds a note to the user's list.
func (r *Repository) Append(ctx context.Context, userID string, note domain.Note) error {
	key := keyPrefix + userID

	notes, err := r.load(ctx, key)
	if err != nil {
		return err
	}
	notes = append(notes, note)

	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store notes for %s: %w", userID, err)
	}
	return nil
}

// List returns the user's notes in insertion order. Unknown users get an
// empty list, not an error.
func (r *Repository) List(ctx context.Context, userID string) ([]domain.Note, error) {
	return r.load(ctx, keyPrefix+userID)
}

func (r *Repository) load(ctx context.Context, key string) ([]domain.Note, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load notes: %w", err)
	}

	var notes []domain.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}
