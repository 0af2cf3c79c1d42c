package alignment

import (
	"strings"
	"unicode/utf8"

	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// Display constraints applied when none are configured
const (
	DefaultMaxChars = 80
	DefaultMaxLines = 2
)

// Normalize prepares segments for display. Text longer than maxChars is
// greedily wrapped into lines of at most maxChars/maxLines characters and
// truncated to maxLines lines. Timings are never changed.
func Normalize(segments []models.Segment, maxChars, maxLines int) []models.Segment {
	if maxLines < 1 {
		maxLines = 1
	}
	lineCap := maxChars / maxLines
	if lineCap < 1 {
		lineCap = 1
	}

	normalized := make([]models.Segment, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)

		if utf8.RuneCountInString(text) > maxChars {
			lines := wrapWords(strings.Fields(text), lineCap)
			if len(lines) > maxLines {
				lines = lines[:maxLines]
			}
			text = strings.Join(lines, "\n")
		}

		normalized = append(normalized, models.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}

	return normalized
}

// wrapWords packs words into lines no longer than lineCap characters.
// A word longer than lineCap gets a line to itself.
func wrapWords(words []string, lineCap int) []string {
	var lines []string
	var current []string
	currentLen := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		candidate := wordLen
		if len(current) > 0 {
			candidate = currentLen + 1 + wordLen
		}

		if candidate <= lineCap {
			current = append(current, word)
			currentLen = candidate
			continue
		}

		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = []string{word}
		currentLen = wordLen
	}

	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	return lines
}
