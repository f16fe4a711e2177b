package domain

import (
	"context"
	"strings"
	"testing"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short text untouched", "Climate Change Act", 600, "Climate Change Act"},
		{"exact length untouched", "abcde", 5, "abcde"},
		{"truncated with ellipsis", "abcdefgh", 3, "abc…"},
		{"runes not bytes", "Überschwemmung", 4, "Über…"},
		{"non-positive n disables", "abc", 0, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.text, tt.n); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
			}
		})
	}
}

func TestPreview_DefaultLength(t *testing.T) {
	text := strings.Repeat("x", 1000)
	got := Preview(text, PreviewChars)
	if !strings.HasSuffix(got, "…") {
		t.Error("expected ellipsis")
	}
	if n := len([]rune(got)); n != PreviewChars+1 {
		t.Errorf("expected %d runes, got %d", PreviewChars+1, n)
	}
}

func TestContextBundle_Empty(t *testing.T) {
	var b ContextBundle
	if !b.IsEmpty() || b.Len() != 0 {
		t.Error("zero bundle must be empty")
	}
}

func TestNormalizeCountryFilter(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"   ":               "",
		GeneralAnalogyLabel: "",
		"Kenya":             "Kenya",
		"  Kenya ":          "Kenya",
	}
	for in, want := range tests {
		if got := NormalizeCountryFilter(in); got != want {
			t.Errorf("NormalizeCountryFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUsage_NilSafe(t *testing.T) {
	var u *Usage
	u.AddEmbeddingTokens(5)
	u.AddGenerationTokens(5)

	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbeddingTokens(7)
	UsageFromContext(ctx).AddGenerationTokens(11)

	if usage.EmbeddingTokens != 7 || usage.GenerationTokens != 11 || !usage.EmbeddingCalled {
		t.Errorf("unexpected usage: %+v", *usage)
	}
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil usage from bare context")
	}
}
