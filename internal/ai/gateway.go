package ai

import (
	"context"
	"strings"
)

// Apology texts returned when no backend is configured, so the pipeline
// always has answer-shaped text to work with.
var noBackendText = map[string]string{
	"vi": "Xin lỗi, hệ thống trả lời hiện chưa được cấu hình. Vui lòng thử lại sau.",
	"en": "Sorry, no language model is configured right now. Please try again later.",
}

// Gateway is the uniform generate/classify surface over whichever backend
// chain the deployment configured.
type Gateway struct {
	backend Backend
}

func NewGateway(backend Backend) *Gateway {
	return &Gateway{backend: backend}
}

// BackendName reports the configured chain, "none" when unconfigured.
func (g *Gateway) BackendName() string {
	if g.backend == nil {
		return "none"
	}
	return g.backend.Name()
}

// Generate runs one generation call. With no backend configured it returns
// a fixed localized apology and no error.
func (g *Gateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if g.backend == nil {
		return apology(req), nil
	}
	return g.backend.Generate(ctx, req)
}

// Classify asks the backend to label the prompt and returns the raw label
// text. Callers interpret the label; LLM errors propagate so they can apply
// their own deterministic fallbacks.
func (g *Gateway) Classify(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if g.backend == nil {
		return "", ErrNotReady
	}
	text, err := g.backend.Generate(ctx, GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Temperature:  Temp(0.1),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func apology(req GenerateRequest) string {
	lang := "vi"
	if looksEnglish(req.Prompt) {
		lang = "en"
	}
	return noBackendText[lang]
}

// looksEnglish is a cheap heuristic used only to localize the apology; the
// pipeline proper receives the language explicitly.
func looksEnglish(text string) bool {
	for _, r := range text {
		if r >= 0x00C0 && r <= 0x1EF9 {
			return false
		}
	}
	return true
}

// ChitchatSystemPrompt is the system prompt for conversational answers.
func ChitchatSystemPrompt(language string) string {
	if language == "en" {
		return "You are a helpful admissions assistant. Answer in English."
	}
	return "Bạn là trợ lý tuyển sinh hữu ích. Hãy trả lời bằng tiếng Việt."
}
