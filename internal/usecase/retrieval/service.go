package retrieval

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/domain"
	"github.com/kailas-cloud/policyqa/internal/domain/search/filter"
	"github.com/kailas-cloud/policyqa/internal/metrics"
)

// Options tunes retrieval.
type Options struct {
	DefaultK int  // used when the caller passes k <= 0
	MaxK     int  // upper bound on k
	Dedupe   bool // drop near-duplicate chunks (same source_file, same normalized text)
}

// DefaultOptions returns k=5, max 50, no dedupe.
func DefaultOptions() Options {
	return Options{DefaultK: domain.DefaultTopK, MaxK: domain.DefaultMaxTopK}
}

// Service turns a question into a ranked context bundle.
type Service struct {
	store  Store
	embed  Embedder
	opts   Options
	logger *zap.Logger
}

// New creates a retrieval service.
func New(store Store, embed Embedder, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultK <= 0 {
		opts.DefaultK = domain.DefaultTopK
	}
	if opts.MaxK <= 0 {
		opts.MaxK = domain.DefaultMaxTopK
	}
	if opts.DefaultK > opts.MaxK {
		opts.DefaultK = opts.MaxK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embed: embed, opts: opts, logger: logger}
}

// ResolveK applies the default and the cap to a caller-supplied k.
func (s *Service) ResolveK(k int) int {
	if k <= 0 {
		return s.opts.DefaultK
	}
	if k > s.opts.MaxK {
		return s.opts.MaxK
	}
	return k
}

// Retrieve embeds the question and returns up to k documents, most similar first.
// country "" (or the "General / Analogy" label) means no filter. An unknown country is not an
// error: it yields an empty bundle. Embedding and store failures return *domain.RetrievalError.
func (s *Service) Retrieve(
	ctx context.Context, question, country string, k int,
) (domain.ContextBundle, error) {
	if strings.TrimSpace(question) == "" {
		return domain.ContextBundle{}, domain.ErrEmptyQuestion
	}

	country = domain.NormalizeCountryFilter(country)
	k = s.ResolveK(k)
	filtered := strconv.FormatBool(country != "")
	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(filtered, "embedding_error").Inc()
		return domain.ContextBundle{}, domain.NewEmbeddingFailure(fmt.Errorf("vectorize question: %w", err))
	}

	fetch := k
	if s.opts.Dedupe {
		fetch = 2 * k
	}

	docs, err := s.store.Search(ctx, emb.Embedding, fetch, filter.ByCountry(country))
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(filtered, "store_error").Inc()
		return domain.ContextBundle{}, domain.NewStoreFailure(fmt.Errorf("search: %w", err))
	}

	docs = s.refine(docs, country, k)
	bundle := domain.ContextBundle{CountryFilter: country, Entries: make([]domain.ContextEntry, 0, len(docs))}
	for i, d := range docs {
		bundle.Entries = append(bundle.Entries, domain.ContextEntry{
			Document: d.Document,
			Rank:     i + 1,
			Score:    d.Score,
		})
	}

	outcome := "ok"
	if bundle.IsEmpty() {
		outcome = "empty"
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(filtered, outcome).Inc()
	metrics.RetrievalBundleSize.Observe(float64(bundle.Len()))

	s.logger.Debug("Context retrieved",
		zap.String("country", country),
		zap.Int("k", k),
		zap.Int("entries", bundle.Len()),
	)

	return bundle, nil
}

// refine enforces the bundle invariants on raw store hits: exact country match,
// non-increasing score, optional dedupe, at most k entries.
func (s *Service) refine(docs []domain.ScoredDocument, country string, k int) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, 0, min(len(docs), k))

	// TAG matching is case-insensitive; the bundle must carry the exact country only.
	for _, d := range docs {
		if country != "" && d.Document.Metadata.Country != country {
			continue
		}
		out = append(out, d)
	}

	slices.SortStableFunc(out, func(a, b domain.ScoredDocument) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if s.opts.Dedupe {
		out = dedupe(out)
	}

	if len(out) > k {
		out = out[:k]
	}
	return out
}

func dedupe(docs []domain.ScoredDocument) []domain.ScoredDocument {
	seen := make(map[string]struct{}, len(docs))
	out := docs[:0]
	for _, d := range docs {
		key := d.Document.Metadata.SourceFile + "\x00" + normalizeText(d.Document.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ListKnownCountries returns the sorted distinct non-blank countries present in the store.
func (s *Service) ListKnownCountries(ctx context.Context) ([]string, error) {
	meta, err := s.store.ListMetadata(ctx)
	if err != nil {
		return nil, domain.NewStoreFailure(fmt.Errorf("list metadata: %w", err))
	}

	seen := make(map[string]struct{}, len(meta))
	countries := make([]string, 0)
	for _, m := range meta {
		c := strings.TrimSpace(m.Country)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		countries = append(countries, c)
	}
	slices.Sort(countries)
	return countries, nil
}

// CountryMenu returns the selector entries: "General / Analogy" first, then known countries.
func (s *Service) CountryMenu(ctx context.Context) ([]string, error) {
	countries, err := s.ListKnownCountries(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string{domain.GeneralAnalogyLabel}, countries...), nil
}
