package policyqa

import (
	"time"

	"github.com/kailas-cloud/policyqa/internal/domain"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
)

// Source is one retrieved document, ranked from 1.
type Source struct {
	ID         string
	Rank       int
	Score      float64 // similarity, higher is closer
	Country    string
	DocType    string
	SourceFile string
	Text       string
}

// Preview returns the first 600 characters of the text, with an ellipsis when cut.
func (s Source) Preview() string {
	return domain.Preview(s.Text, domain.PreviewChars)
}

// Bundle is the ranked context of one question.
type Bundle struct {
	Country string // "" when no filter was applied
	Sources []Source
}

// Empty reports whether nothing was retrieved.
func (b Bundle) Empty() bool { return len(b.Sources) == 0 }

// Usage reports tokens spent on one question.
type Usage struct {
	EmbeddingTokens  int
	GenerationTokens int
}

// Answer is the result of synthesis. When GenerationError is set Text is empty and
// Sources still holds the retrieved context.
type Answer struct {
	QueryID         string
	Question        string
	Text            string
	Model           string
	Sources         []Source
	Country         string
	NoContext       bool
	GenerationError error
	Usage           Usage
	Duration        time.Duration
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok", "error", "unconfigured"
}

func bundleFromDomain(b domain.ContextBundle) Bundle {
	out := Bundle{Country: b.CountryFilter, Sources: make([]Source, 0, b.Len())}
	for _, e := range b.Entries {
		out.Sources = append(out.Sources, Source{
			ID:         e.Document.ID,
			Rank:       e.Rank,
			Score:      e.Score,
			Country:    e.Document.Metadata.Country,
			DocType:    e.Document.Metadata.DocType,
			SourceFile: e.Document.Metadata.SourceFile,
			Text:       e.Document.Text,
		})
	}
	return out
}

func bundleToDomain(b Bundle) domain.ContextBundle {
	out := domain.ContextBundle{CountryFilter: b.Country, Entries: make([]domain.ContextEntry, 0, len(b.Sources))}
	for i, s := range b.Sources {
		rank := s.Rank
		if rank <= 0 {
			rank = i + 1
		}
		out.Entries = append(out.Entries, domain.ContextEntry{
			Rank:  rank,
			Score: s.Score,
			Document: domain.Document{
				ID:   s.ID,
				Text: s.Text,
				Metadata: domain.Metadata{
					Country:    s.Country,
					DocType:    s.DocType,
					SourceFile: s.SourceFile,
				},
			},
		})
	}
	return out
}

func answerFromResult(res domain.AnswerResult) Answer {
	b := bundleFromDomain(res.CitedSources)
	return Answer{
		Text:            res.AnswerText,
		Model:           res.Model,
		Sources:         b.Sources,
		Country:         b.Country,
		NoContext:       res.NoContext,
		GenerationError: res.GenerationError,
		Usage:           Usage{GenerationTokens: res.TotalTokens},
	}
}

func answerFromQA(a qauc.Answer) Answer {
	out := answerFromResult(a.Result)
	out.QueryID = a.QueryID
	out.Question = a.Question
	out.Usage = Usage{
		EmbeddingTokens:  a.Usage.EmbeddingTokens,
		GenerationTokens: a.Usage.GenerationTokens,
	}
	out.Duration = a.Duration
	return out
}
