package ai

import (
	"context"
	"log"
)

// FallbackBackend chains a primary and a secondary backend behind the same
// Backend interface. Callers never learn which one answered; the serving
// backend is only logged.
type FallbackBackend struct {
	primary   Backend
	secondary Backend
}

func NewFallbackBackend(primary, secondary Backend) *FallbackBackend {
	return &FallbackBackend{primary: primary, secondary: secondary}
}

func (f *FallbackBackend) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	text, err := f.primary.Generate(ctx, req)
	if err == nil {
		log.Printf("llm request served by %s", f.primary.Name())
		return text, nil
	}

	log.Printf("llm backend %s unavailable (%v), retrying on %s", f.primary.Name(), err, f.secondary.Name())
	text, err2 := f.secondary.Generate(ctx, req)
	if err2 != nil {
		// Surface the secondary's error; the primary failure is already logged.
		return "", err2
	}
	log.Printf("llm request served by %s", f.secondary.Name())
	return text, nil
}
