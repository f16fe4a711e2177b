package policyqa

import (
	"context"

	"github.com/kailas-cloud/policyqa/internal/domain"
	healthuc "github.com/kailas-cloud/policyqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
)

type mockRetrieval struct {
	retrieveFn func(ctx context.Context, question, country string, k int) (domain.ContextBundle, error)
	menuFn     func(ctx context.Context) ([]string, error)
}

func (m *mockRetrieval) Retrieve(ctx context.Context, question, country string, k int) (domain.ContextBundle, error) {
	return m.retrieveFn(ctx, question, country, k)
}

func (m *mockRetrieval) CountryMenu(ctx context.Context) ([]string, error) {
	return m.menuFn(ctx)
}

type mockSynth struct {
	synthFn func(ctx context.Context, question string, bundle domain.ContextBundle) domain.AnswerResult
}

func (m *mockSynth) Synthesize(ctx context.Context, question string, bundle domain.ContextBundle) domain.AnswerResult {
	return m.synthFn(ctx, question, bundle)
}

type mockQA struct {
	askFn func(ctx context.Context, question, country string, k int) (qauc.Answer, error)
}

func (m *mockQA) Ask(ctx context.Context, question, country string, k int) (qauc.Answer, error) {
	return m.askFn(ctx, question, country, k)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fakeEmbedder struct {
	vec       []float32
	err       error
	healthErr error
}

func (f *fakeEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	if f.err != nil {
		return EmbeddingResult{}, f.err
	}
	return EmbeddingResult{Embedding: f.vec, PromptTokens: 3, TotalTokens: 3}, nil
}

func (f *fakeEmbedder) HealthCheck(context.Context) error { return f.healthErr }

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(context.Context, string) (Generation, error) {
	if f.err != nil {
		return Generation{}, f.err
	}
	return Generation{Text: f.text, Model: "fake", PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

func kenyaBundle() domain.ContextBundle {
	return domain.ContextBundle{
		CountryFilter: "Kenya",
		Entries: []domain.ContextEntry{
			{Rank: 1, Score: 0.92, Document: domain.Document{
				ID:       "climate:1",
				Text:     "Climate Change Act 2016",
				Metadata: domain.Metadata{Country: "Kenya", DocType: "law", SourceFile: "kenya_cca.pdf"},
			}},
			{Rank: 2, Score: 0.81, Document: domain.Document{
				ID:       "climate:2",
				Text:     "National Adaptation Plan 2015-2030",
				Metadata: domain.Metadata{Country: "Kenya", DocType: "NAP"},
			}},
		},
	}
}
