package alignment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     []string
	}{
		{"empty", "", 5, []string{}},
		{"whitespace only", "   \t\n ", 5, []string{}},
		{"single word", "Hello", 5, []string{"Hello"}},
		{"exact multiple", "a b c d", 2, []string{"a b", "c d"}},
		{"short tail", "one two three four five six seven", 3, []string{"one two three", "four five six", "seven"}},
		{"collapses whitespace", "  Xin   chào.\nĐây  là  ", 5, []string{"Xin chào. Đây là"}},
		{"non-positive size uses default", "a b c d e f", 0, []string{"a b c d e", "f"}},
		{
			"example script",
			"Hello world. This is a test. Another sentence!",
			5,
			[]string{"Hello world. This is a", "test. Another sentence!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitChunks(tt.text, tt.maxWords))
		})
	}
}

func TestSplitChunksReconstructsWords(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog and keeps running far away"
	for maxWords := 1; maxWords <= 8; maxWords++ {
		chunks := SplitChunks(text, maxWords)

		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
		for i, chunk := range chunks {
			n := len(strings.Fields(chunk))
			if i < len(chunks)-1 {
				assert.Equal(t, maxWords, n, "chunk %d", i)
			} else {
				assert.LessOrEqual(t, n, maxWords)
				assert.Greater(t, n, 0)
			}
		}
	}
}

func TestSupportedLanguages(t *testing.T) {
	assert.True(t, IsSupportedLanguage("vie"))
	assert.True(t, IsSupportedLanguage("eng"))
	assert.False(t, IsSupportedLanguage("xx"))
	assert.False(t, IsSupportedLanguage("ENG"))
	assert.Equal(t, "German", LanguageName("deu"))

	codes := SupportedLanguages()
	assert.Len(t, codes, 11)
	assert.Equal(t, "deu", codes[0])
}
