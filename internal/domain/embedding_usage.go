package domain

import "context"

type usageKey struct{}

// Usage collects token usage for a single question.
// The caller puts a mutable pointer into the context before running the pipeline;
// the embedder and synthesizer write into it; the caller reads it for the response.
type Usage struct {
	EmbeddingTokens  int
	GenerationTokens int
	EmbeddingCalled  bool // true even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records tokens consumed by query vectorization.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
		u.EmbeddingCalled = true
	}
}

// AddGenerationTokens records tokens consumed by answer synthesis.
func (u *Usage) AddGenerationTokens(n int) {
	if u != nil {
		u.GenerationTokens += n
	}
}
