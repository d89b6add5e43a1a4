package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/domain"
)

func newTestChatClient(t *testing.T, handler http.HandlerFunc) *ChatClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewChatClient(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zap.NewNop(),
	}, "test-chat-model", "test-whisper")
}

func TestChatClient_Generate(t *testing.T) {
	var gotReq struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	client := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "  la respuesta  "}}]
		}`))
	})

	out, err := client.Generate(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "instrucción"},
		{Role: domain.RoleUser, Content: "pregunta"},
	}, 0.3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if out != "la respuesta" {
		t.Errorf("output not trimmed: %q", out)
	}
	if gotReq.Model != "test-chat-model" {
		t.Errorf("model: %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.3 {
		t.Errorf("temperature: %v", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages: %+v", gotReq.Messages)
	}
}

func TestChatClient_Generate_ProviderDown(t *testing.T) {
	client := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}}, 0)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
}
