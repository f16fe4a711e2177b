package domain

import "unicode/utf8"

// ContextEntry is one retrieved document with its 1-based rank in the bundle.
type ContextEntry struct {
	Document Document
	Rank     int
	Score    float64
}

// ContextBundle is the ranked grounding context of a single answer, in descending similarity.
// When CountryFilter is non-empty every entry belongs to that country.
type ContextBundle struct {
	CountryFilter string
	Entries       []ContextEntry
}

// Len returns the number of entries.
func (b ContextBundle) Len() int { return len(b.Entries) }

// IsEmpty reports whether retrieval found no grounding context.
func (b ContextBundle) IsEmpty() bool { return len(b.Entries) == 0 }

// Preview returns at most n runes of text, suffixed with an ellipsis when truncated.
func Preview(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}
