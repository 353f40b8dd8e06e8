package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitbot/internal/config"
	"admitbot/internal/model"
)

func TestOpenAIClientGenerate(t *testing.T) {
	var gotReq struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
		Temp     *float64      `json:"temperature"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Tuition is 25 million VND."}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "gemini-1.5-pro"})
	text, err := c.Generate(context.Background(), GenerateRequest{
		Prompt:       "What is the tuition?",
		SystemPrompt: "You are an admissions assistant.",
		History:      []model.HistoryTurn{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
		Temperature:  Temp(0.1),
	})

	require.NoError(t, err)
	assert.Equal(t, "Tuition is 25 million VND.", text)
	assert.Equal(t, "gemini-1.5-pro", gotReq.Model)
	require.Len(t, gotReq.Messages, 4)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[3].Role)
	assert.Equal(t, "What is the tuition?", gotReq.Messages[3].Content)
	require.NotNil(t, gotReq.Temp)
	assert.InDelta(t, 0.1, *gotReq.Temp, 1e-9)
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestEmbeddingClientEmbedMany(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInput = req.Input
		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]interface{}{"embedding": []float32{float32(i), 1}}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(config.EmbeddingConfig{BaseURL: srv.URL, Model: "text-embedding-004"})

	vecs, err := c.EmbedMany(context.Background(), []string{"tuition", "  ", "deadline"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	// Blank entries stay positionally aligned.
	assert.Equal(t, []string{"tuition", " ", "deadline"}, gotInput)
	assert.Equal(t, []float32{2, 1}, vecs[2])

	vecs, err = c.EmbedMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbeddingClientCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(config.EmbeddingConfig{BaseURL: srv.URL})
	_, err := c.EmbedMany(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestEmbeddingClientEmbedOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.5, 0.25}}},
		})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(config.EmbeddingConfig{BaseURL: srv.URL})

	vec, err := c.EmbedOne(context.Background(), "tuition")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	vec, err = c.EmbedOne(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, vec)
}

func TestOllamaClientNotReadyUntilWarmUp(t *testing.T) {
	pulled := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/pull":
			close(pulled)
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			_ = json.NewEncoder(w).Encode(map[string]string{"response": "local answer"})
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(config.OllamaConfig{BaseURL: srv.URL, Model: "qwen2.5:3b"})
	assert.False(t, c.Ready())

	_, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrNotReady)

	c.WarmUp(context.Background())
	select {
	case <-pulled:
	case <-time.After(5 * time.Second):
		t.Fatal("warm-up pull was never issued")
	}
	require.Eventually(t, c.Ready, 5*time.Second, 10*time.Millisecond)

	text, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", text)
}

func TestOllamaClientFoldsHistoryIntoPrompt(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer srv.Close()

	c := NewOllamaClient(config.OllamaConfig{BaseURL: srv.URL, Model: "qwen2.5:3b"})
	c.ready.Store(true)

	_, err := c.Generate(context.Background(), GenerateRequest{
		Prompt:  "and the deadline?",
		History: []model.HistoryTurn{{Role: "user", Content: "tuition?"}},
	})
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "user: tuition?")
	assert.Contains(t, gotPrompt, "user: and the deadline?")
}
