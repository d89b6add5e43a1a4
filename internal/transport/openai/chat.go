package openai

import (
	"context"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/domain"
	"github.com/gemba-cloud/gembot/internal/metrics"
)

// ChatClient generates completions and transcribes audio through the
// OpenAI-compatible API.
type ChatClient struct {
	client             *openai.Client
	model              string
	transcriptionModel string
	logger             *zap.Logger
}

// NewChatClient creates a generation/transcription provider.
func NewChatClient(cfg *Config, model, transcriptionModel string) *ChatClient {
	return &ChatClient{
		client:             newClient(cfg),
		model:              model,
		transcriptionModel: transcriptionModel,
		logger:             cfg.Logger,
	}
}

// Generate implements domain.Generator. The provider's output is returned
// verbatim, trimmed of surrounding whitespace.
func (c *ChatClient) Generate(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", parseAPIError("completion", err)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", parseAPIError("completion", domain.ErrProviderUnavailable)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Transcribe implements domain.Transcriber.
func (c *ChatClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", parseAPIError("transcription", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
