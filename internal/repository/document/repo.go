package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/policyqa/internal/db"
	"github.com/kailas-cloud/policyqa/internal/domain"
	"github.com/kailas-cloud/policyqa/internal/domain/search/filter"
)

// store is the consumer interface for the pre-built document index (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	HMGetMulti(ctx context.Context, keys, fields []string) ([]map[string]string, error)
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Fields names the hash fields written at ingestion time.
type Fields struct {
	Content    string
	Country    string
	DocType    string
	SourceFile string
	Vector     string
}

// DefaultFields returns the field layout of the climate_laws_nap index.
func DefaultFields() Fields {
	return Fields{
		Content:    "content",
		Country:    filter.CountryField,
		DocType:    "doc_type",
		SourceFile: "source_file",
		Vector:     "vector",
	}
}

// Options configures the repository.
type Options struct {
	IndexName string
	KeyPrefix string
	Distance  db.DistanceMetric
	Fields    Fields
}

// Repo implements the vector store used by retrieval: KNN search and metadata scans.
type Repo struct {
	store  store
	opts   Options
	fields []string
}

// New creates a document repository. Zero-valued options fall back to domain defaults.
func New(s store, opts Options) *Repo {
	def := domain.DefaultVectorConfig()
	if opts.IndexName == "" {
		opts.IndexName = def.IndexName
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = def.KeyPrefix
	}
	if opts.Distance == "" {
		opts.Distance = db.ParseDistance(def.DistanceMetric)
	}
	opts.Fields = withDefaults(opts.Fields)

	return &Repo{
		store: s,
		opts:  opts,
		fields: []string{
			opts.Fields.Content, opts.Fields.Country, opts.Fields.DocType, opts.Fields.SourceFile,
		},
	}
}

// Search returns up to k nearest documents, nearest first, restricted by the filter.
// Only k == 0 is treated as empty; negative k is rejected.
func (r *Repo) Search(
	ctx context.Context, vector []float32, k int, filters filter.Expression,
) ([]domain.ScoredDocument, error) {
	if k < 0 {
		return nil, fmt.Errorf("k must not be negative: %d", k)
	}
	if k == 0 {
		return nil, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.opts.IndexName,
		VectorField:  r.opts.Fields.Vector,
		Filters:      r.physical(filters),
		Vector:       vector,
		K:            k,
		ReturnFields: r.fields,
		Distance:     r.opts.Distance,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.opts.IndexName, err)
	}

	return r.toScored(sr), nil
}

// ListMetadata scans every indexed document and returns its metadata.
// Order follows the keyspace scan and carries no meaning.
func (r *Repo) ListMetadata(ctx context.Context) ([]domain.Metadata, error) {
	keys, err := r.store.Scan(ctx, r.opts.KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.opts.KeyPrefix, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	fields := []string{r.opts.Fields.Country, r.opts.Fields.DocType, r.opts.Fields.SourceFile}
	rows, err := r.store.HMGetMulti(ctx, keys, fields)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	out := make([]domain.Metadata, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, domain.Metadata{
			Country:    row[r.opts.Fields.Country],
			DocType:    row[r.opts.Fields.DocType],
			SourceFile: row[r.opts.Fields.SourceFile],
		})
	}
	return out, nil
}

// Ready reports whether the configured index exists.
func (r *Repo) Ready(ctx context.Context) error {
	ok, err := r.store.IndexExists(ctx, r.opts.IndexName)
	if err != nil {
		return fmt.Errorf("index info %s: %w", r.opts.IndexName, err)
	}
	if !ok {
		return fmt.Errorf("%w: index %s", db.ErrIndexNotFound, r.opts.IndexName)
	}
	return nil
}

// IndexName returns the configured index.
func (r *Repo) IndexName() string {
	return r.opts.IndexName
}

func (r *Repo) toScored(sr *db.SearchResult) []domain.ScoredDocument {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	docs := make([]domain.ScoredDocument, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		docs = append(docs, domain.ScoredDocument{
			Document: domain.Document{
				ID:   strings.TrimPrefix(entry.Key, r.opts.KeyPrefix),
				Text: entry.Fields[r.opts.Fields.Content],
				Metadata: domain.Metadata{
					Country:    entry.Fields[r.opts.Fields.Country],
					DocType:    entry.Fields[r.opts.Fields.DocType],
					SourceFile: entry.Fields[r.opts.Fields.SourceFile],
				},
			},
			Score: entry.Score,
		})
	}
	return docs
}

// physical maps the logical country key onto the configured hash field.
func (r *Repo) physical(expr filter.Expression) filter.Expression {
	if expr.IsEmpty() || r.opts.Fields.Country == filter.CountryField {
		return expr
	}
	conds := make([]filter.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		key := c.Key()
		if key == filter.CountryField {
			key = r.opts.Fields.Country
		}
		mapped, err := filter.NewMatch(key, c.Match())
		if err != nil {
			continue
		}
		conds = append(conds, mapped)
	}
	out, err := filter.NewExpression(conds...)
	if err != nil {
		return expr
	}
	return out
}

func withDefaults(f Fields) Fields {
	def := DefaultFields()
	if f.Content == "" {
		f.Content = def.Content
	}
	if f.Country == "" {
		f.Country = def.Country
	}
	if f.DocType == "" {
		f.DocType = def.DocType
	}
	if f.SourceFile == "" {
		f.SourceFile = def.SourceFile
	}
	if f.Vector == "" {
		f.Vector = def.Vector
	}
	return f
}
