package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
)

func TestOllamaEmbedStrings(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		calls++
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{float64(calls), 0.5}})
	}))
	defer server.Close()

	emb := NewOllama(server.URL, "test-model")
	vectors, err := emb.EmbedStrings(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedStrings: %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestOllamaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewOllama(server.URL, "m").EmbedStrings(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestOllamaLeavesTimeoutToContext(t *testing.T) {
	if got := NewOllama("", "").client.Timeout; got != 0 {
		t.Fatalf("expected no client timeout, got %v", got)
	}
}

func TestOllamaDefaults(t *testing.T) {
	emb := NewOllama("", "")
	if emb.baseURL != "http://localhost:11434" || emb.model != "nomic-embed-text" {
		t.Fatalf("unexpected defaults %q %q", emb.baseURL, emb.model)
	}
}

func TestOpenAIEmbedStringsOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer server.Close()

	emb, err := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/"}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	vectors, err := emb.EmbedStrings(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedStrings: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors not in input order: %v", vectors)
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestOpenAIServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	emb, _ := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/"}, option.WithMaxRetries(0))
	if _, err := emb.EmbedStrings(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}
