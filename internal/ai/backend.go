// Package ai wraps the language-model and embedding backends behind uniform
// interfaces so the pipeline never knows which provider served a request.
package ai

import (
	"context"
	"errors"

	"admitbot/internal/model"
)

var (
	// ErrNotReady signals that a local backend has not finished its model
	// warm-up and cannot serve yet.
	ErrNotReady = errors.New("llm backend not ready")

	// ErrEmbedding marks embedding-provider failures; fatal for the single
	// affected ingestion or query.
	ErrEmbedding = errors.New("embedding failed")
)

// GenerateRequest carries one generation call. SystemPrompt and History are
// optional; Temperature is applied only when non-nil.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	History      []model.HistoryTurn
	Temperature  *float64
}

// Backend is the single polymorphic interface every concrete LLM variant
// implements. Callers never probe for optional methods; history-aware
// generation is part of the request, and classification is built on top of
// Generate by the Gateway.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Embedder converts text to fixed-length vectors.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Temp is a convenience for request temperatures.
func Temp(v float64) *float64 { return &v }
