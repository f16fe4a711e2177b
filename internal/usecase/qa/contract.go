package qa

import (
	"context"

	"github.com/kailas-cloud/policyqa/internal/domain"
)

// Retriever builds the context bundle for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question, country string, k int) (domain.ContextBundle, error)
	CountryMenu(ctx context.Context) ([]string, error)
}

// Synthesizer turns a question and a bundle into an answer. Never fails.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, bundle domain.ContextBundle) domain.AnswerResult
}
