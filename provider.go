package policyqa

import (
	"context"

	"github.com/kailas-cloud/policyqa/internal/domain"
)

// Embedder converts text to a vector. Its dimension must match the ingested index.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator produces an answer from a fully built prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Generation is one completed model call.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type embedderAdapter struct{ inner Embedder }

func (a embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

type generatorAdapter struct{ inner Generator }

func (a generatorAdapter) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	g, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return domain.Generation{}, err
	}
	return domain.Generation{
		Text:             g.Text,
		Model:            g.Model,
		PromptTokens:     g.PromptTokens,
		CompletionTokens: g.CompletionTokens,
		TotalTokens:      g.TotalTokens,
	}, nil
}

func (a generatorAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
