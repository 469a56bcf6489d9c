package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "Dune", "dune"},
		{"spaces become dashes", "The Lord of the Rings", "the-lord-of-the-rings"},
		{"punctuation stripped", "Catch-22: A Novel!", "catch-22-a-novel"},
		{"repeated separators collapse", "A  --  B", "a-b"},
		{"leading and trailing trimmed", "  ...Dune...  ", "dune"},
		{"empty input", "", "untitled"},
		{"only punctuation", "???", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugify_LongTitle(t *testing.T) {
	slug := Slugify(strings.Repeat("word ", 50))
	assert.LessOrEqual(t, len(slug), 100)
	assert.False(t, strings.HasSuffix(slug, "-"))
}
