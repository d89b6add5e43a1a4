package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/gemba-cloud/gembot/internal/domain"
	"github.com/gemba-cloud/gembot/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

// embeddingResponse mirrors the OpenAI-compatible embedding response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbedder(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zap.NewNop(),
	}, "test-model", 4)
}

func TestEmbedder_Embed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}

	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = []embeddingItem{{Object: "embedding", Embedding: expectedVec, Index: 0}}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 10

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	result, err := emb.Embed(context.Background(), "hola mundo")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("vector length: got %d, want %d", len(result.Embedding), len(expectedVec))
	}
	for i := range expectedVec {
		if result.Embedding[i] != expectedVec[i] {
			t.Errorf("component %d: got %v, want %v", i, result.Embedding[i], expectedVec[i])
		}
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens: got %d, want 10", result.TotalTokens)
	}
}

func TestEmbedder_BatchEmbed_RestoresOrder(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		// Vectors returned out of order; Index must be honored.
		resp.Data = []embeddingItem{
			{Embedding: []float32{2, 2, 2, 2}, Index: 1},
			{Embedding: []float32{1, 1, 1, 1}, Index: 0},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	result, err := emb.BatchEmbed(context.Background(), []string{"uno", "dos"})
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}
	if result.Embeddings[0][0] != 1 || result.Embeddings[1][0] != 2 {
		t.Errorf("order not restored: %v", result.Embeddings)
	}
}

func TestEmbedder_BatchEmbed_CountMismatch(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list"}
		resp.Data = []embeddingItem{{Embedding: []float32{1, 1, 1, 1}, Index: 0}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	_, err := emb.BatchEmbed(context.Background(), []string{"uno", "dos"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
}

func TestEmbedder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrProviderQuota},
		{"bad request", http.StatusBadRequest, domain.ErrProviderRejected},
		{"server error", http.StatusInternalServerError, domain.ErrProviderUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "test"}}`))
			})

			_, err := emb.Embed(context.Background(), "hola")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: got %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}
