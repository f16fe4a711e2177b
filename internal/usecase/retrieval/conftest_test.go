package retrieval

import (
	"context"
	"math"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/domain"
	"github.com/kailas-cloud/policyqa/internal/domain/search/filter"
)

// memStore is an in-memory vector store with cosine similarity and exact TAG filtering.
type memStore struct {
	docs      []domain.Document
	searchErr error
	listErr   error
	lastK     int
	lastExpr  filter.Expression
	searches  int
}

func (m *memStore) Search(
	_ context.Context, vector []float32, k int, filters filter.Expression,
) ([]domain.ScoredDocument, error) {
	m.searches++
	m.lastK = k
	m.lastExpr = filters
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	country := filters.Value(filter.CountryField)
	hits := make([]domain.ScoredDocument, 0, len(m.docs))
	for _, d := range m.docs {
		if country != "" && d.Metadata.Country != country {
			continue
		}
		hits = append(hits, domain.ScoredDocument{Document: d, Score: cosine(vector, d.Embedding)})
	}
	slices.SortStableFunc(hits, func(a, b domain.ScoredDocument) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memStore) ListMetadata(_ context.Context) ([]domain.Metadata, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Metadata, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d.Metadata)
	}
	return out, nil
}

// stubStore returns canned hits regardless of the query.
type stubStore struct {
	hits []domain.ScoredDocument
}

func (s *stubStore) Search(context.Context, []float32, int, filter.Expression) ([]domain.ScoredDocument, error) {
	return s.hits, nil
}

func (s *stubStore) ListMetadata(context.Context) ([]domain.Metadata, error) { return nil, nil }

type fixedEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector, TotalTokens: 7}, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func doc(id, country, docType string, vec ...float32) domain.Document {
	return domain.Document{
		ID:        id,
		Text:      "text of " + id,
		Metadata:  domain.Metadata{Country: country, DocType: docType, SourceFile: id + ".pdf"},
		Embedding: vec,
	}
}

// kenyaCorpus holds 2 Kenya documents and 10 others.
func kenyaCorpus() []domain.Document {
	docs := []domain.Document{
		doc("ke-law", "Kenya", "law", 0.9, 0.1, 0.0),
		doc("ke-nap", "Kenya", "NAP", 0.8, 0.3, 0.1),
	}
	others := []string{"Uganda", "Tanzania", "Ethiopia", "Chile", "Peru", "Fiji", "Nepal", "Ghana", "Rwanda", "Zambia"}
	for i, c := range others {
		docs = append(docs, doc("o-"+c, c, "NAP", float32(i+1)/10, 0.5, 0.2))
	}
	return docs
}

func newTestService(t *testing.T, store Store, opts Options) (*Service, *fixedEmbedder) {
	t.Helper()
	emb := &fixedEmbedder{vector: []float32{1, 0.2, 0}}
	return New(store, emb, opts, zap.NewNop()), emb
}
