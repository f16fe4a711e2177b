package domain

import "strings"

const (
	// DefaultTopK is the number of context documents requested per question.
	DefaultTopK = 5
	// DefaultMaxTopK caps caller-supplied k.
	DefaultMaxTopK = 50
	// PreviewChars is the length of a cited source preview.
	PreviewChars = 600
	// GeneralAnalogyLabel is the menu entry that means "no country filter".
	GeneralAnalogyLabel = "General / Analogy"
)

// VectorConfig holds vectorization settings of the pre-ingested store.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
	IndexName      string
	KeyPrefix      string
}

// DefaultVectorConfig matches the upstream ingestion: MiniLM-L6 embeddings, cosine distance.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions:     384,
		DistanceMetric: "cosine",
		IndexName:      "climate_laws_nap",
		KeyPrefix:      "climate:",
	}
}

// NormalizeCountryFilter maps the menu label and blanks to the no-filter sentinel ("").
func NormalizeCountryFilter(country string) string {
	c := strings.TrimSpace(country)
	if c == GeneralAnalogyLabel {
		return ""
	}
	return c
}
