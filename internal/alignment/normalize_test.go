package alignment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

func TestNormalizeShortTextUnchanged(t *testing.T) {
	in := []models.Segment{
		{Start: 0, End: 1.2, Text: "Hello world"},
		{Start: 1.2, End: 2.4, Text: strings.Repeat("x", 80)},
	}

	out := Normalize(in, 80, 2)
	assert.Equal(t, in, out)
}

func TestNormalizeTrims(t *testing.T) {
	out := Normalize([]models.Segment{{Start: 1, End: 2, Text: "  padded  "}}, 80, 2)
	assert.Equal(t, "padded", out[0].Text)
}

func TestNormalizeWrapsLongText(t *testing.T) {
	text := "This sentence is deliberately long so that it must be wrapped across more than one line of subtitles for display"
	in := []models.Segment{{Start: 3.5, End: 9.25, Text: text}}

	out := Normalize(in, 80, 2)
	assert.Len(t, out, 1)
	assert.Equal(t, 3.5, out[0].Start)
	assert.Equal(t, 9.25, out[0].End)

	lines := strings.Split(out[0].Text, "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 40)
	}
	assert.True(t, strings.HasPrefix(text, strings.Join(lines, " ")))
}

func TestNormalizeLongWordOnOwnLine(t *testing.T) {
	long := strings.Repeat("w", 50)
	in := []models.Segment{{Start: 0, End: 1, Text: "tiny " + long + " end of the line here"}}

	out := Normalize(in, 40, 2)
	lines := strings.Split(out[0].Text, "\n")
	assert.Equal(t, []string{"tiny", long}, lines)
}

func TestNormalizeDiscardsOverflowLines(t *testing.T) {
	words := make([]string, 60)
	for i := range words {
		words[i] = "word"
	}
	in := []models.Segment{{Start: 0, End: 10, Text: strings.Join(words, " ")}}

	out := Normalize(in, 20, 3)
	assert.Len(t, out, 1)
	assert.Len(t, strings.Split(out[0].Text, "\n"), 3)
}

func TestNormalizeCountsRunes(t *testing.T) {
	// 30 two-byte characters stay under a 40 character limit
	text := strings.Repeat("é", 30)
	out := Normalize([]models.Segment{{Start: 0, End: 1, Text: text}}, 40, 2)
	assert.Equal(t, text, out[0].Text)
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Empty(t, Normalize(nil, 80, 2))
}
