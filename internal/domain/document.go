package domain

// Metadata is the per-document annotation written at ingestion time.
type Metadata struct {
	Country    string
	DocType    string // "law", "NAP", ...
	SourceFile string
}

// Document is a unit of retrievable text owned by the vector store. Immutable for this service.
type Document struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32 // not returned by search
}

// ScoredDocument is a single nearest-neighbour hit in store rank order.
type ScoredDocument struct {
	Document Document
	Score    float64 // similarity, higher is closer
}
