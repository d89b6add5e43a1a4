package domain

import (
	"context"
	"io"
)

// Message roles understood by the generation provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single role-tagged turn in a generation request.
type Message struct {
	Role    string
	Content string
}

// Generator produces a completion for an ordered sequence of messages.
// Temperature is in [0,1]; lower values favor grounded, repeatable output.
type Generator interface {
	Generate(ctx context.Context, messages []Message, temperature float32) (string, error)
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}
