package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := map[string]string{
		"Summer Promo":        "summer-promo",
		"ALL UPPER CASE":      "all-upper-case",
		"Café Niño":           "cafe-nino",
		"Crème Brûlée":        "creme-brulee",
		"Straße":              "strasse",
		"Hello!!! World???":   "hello-world",
		"Gold Tier: $100/yr":  "gold-tier-100-yr",
		"  Axis & Partners  ": "axis-partners",
		"":                    "",
	}
	for input, want := range tests {
		assert.Equal(t, want, Generate(input), "Generate(%q)", input)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hero Banner (final).JPG", "hero-banner-final.jpg"},
		{"clip.mov", "clip.mov"},
		{"my photo.jpeg", "my-photo.jpeg"},
		{"no-extension", "no-extension"},
		{"weird.ext with space", "weird-ext-with-space"},
		{".jpg", "file.jpg"},
		{"???", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.input))
		})
	}
}
