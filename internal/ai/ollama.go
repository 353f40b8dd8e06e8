package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"admitbot/internal/config"
)

// OllamaClient talks to a locally hosted inference server. The model may
// need a pull before it can serve; until WarmUp completes, Generate returns
// ErrNotReady so a fallback chain can route elsewhere. The readiness flag is
// a single atomic with relaxed reads; a stale "not ready" self-corrects on
// the next request.
type OllamaClient struct {
	cfg        config.OllamaConfig
	httpClient *http.Client
	ready      atomic.Bool
}

func NewOllamaClient(cfg config.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *OllamaClient) Name() string { return "ollama:" + c.cfg.Model }

// Ready reports whether the model warm-up has completed.
func (c *OllamaClient) Ready() bool { return c.ready.Load() }

// WarmUp pulls the configured model in a detached goroutine and flips the
// readiness flag when done. Callers are never blocked on the pull.
func (c *OllamaClient) WarmUp(ctx context.Context) {
	go func() {
		if err := c.pullModel(ctx); err != nil {
			log.Printf("ollama warm-up failed for %s: %v", c.cfg.Model, err)
			return
		}
		c.ready.Store(true)
		log.Printf("ollama model %s ready", c.cfg.Model)
	}()
}

func (c *OllamaClient) pullModel(ctx context.Context) error {
	body, err := json.Marshal(map[string]interface{}{
		"name":   c.cfg.Model,
		"stream": false,
	})
	if err != nil {
		return fmt.Errorf("marshal pull request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/pull"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build pull request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Pulls can take minutes on first run.
	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pull response status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

func (c *OllamaClient) Generate(ctx context.Context, genReq GenerateRequest) (string, error) {
	if !c.ready.Load() {
		return "", ErrNotReady
	}

	prompt := genReq.Prompt
	if len(genReq.History) > 0 {
		var b strings.Builder
		for _, turn := range genReq.History {
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("user: ")
		b.WriteString(genReq.Prompt)
		prompt = b.String()
	}

	reqBody := map[string]interface{}{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
	}
	if genReq.SystemPrompt != "" {
		reqBody["system"] = genReq.SystemPrompt
	}
	if genReq.Temperature != nil {
		reqBody["options"] = map[string]interface{}{"temperature": *genReq.Temperature}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build ollama request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse ollama json failed: %w", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("empty ollama response")
	}
	return strings.TrimSpace(parsed.Response), nil
}
