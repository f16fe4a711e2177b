package retrieval

import (
	"context"

	"github.com/kailas-cloud/policyqa/internal/domain"
	"github.com/kailas-cloud/policyqa/internal/domain/search/filter"
)

// Store is the pre-ingested vector store: filtered KNN search and metadata enumeration.
type Store interface {
	Search(ctx context.Context, vector []float32, k int, filters filter.Expression) ([]domain.ScoredDocument, error)
	ListMetadata(ctx context.Context) ([]domain.Metadata, error)
}

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
