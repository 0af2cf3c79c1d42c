package alignment

import (
	"math"
	"unicode/utf8"

	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

const (
	// EstimatedSecondsPerChunk approximates the audio length when it cannot be probed
	EstimatedSecondsPerChunk = 3.0

	// MinChunkDuration is the shortest span a chunk is given by the fallback
	MinChunkDuration = 0.5
)

// EstimateDuration returns the audio length assumed for chunkCount chunks
// when the real duration is unknown
func EstimateDuration(chunkCount int) float64 {
	return float64(chunkCount) * EstimatedSecondsPerChunk
}

// FallbackSegments spreads totalDuration over the chunks in proportion to
// their character length. Each chunk gets at least MinChunkDuration, so the
// timeline may run past totalDuration when there are many short chunks.
// Segments are contiguous and start at zero.
func FallbackSegments(chunks []string, totalDuration float64) []models.Segment {
	totalChars := 0
	for _, chunk := range chunks {
		totalChars += utf8.RuneCountInString(chunk)
	}
	if totalChars == 0 {
		totalChars = 1
	}

	segments := make([]models.Segment, 0, len(chunks))
	clock := 0.0

	for _, chunk := range chunks {
		span := float64(utf8.RuneCountInString(chunk)) / float64(totalChars) * totalDuration
		if span < MinChunkDuration {
			span = MinChunkDuration
		}

		segments = append(segments, models.Segment{
			Start: roundMillis(clock),
			End:   roundMillis(clock + span),
			Text:  chunk,
		})

		clock += span
	}

	return segments
}

func roundMillis(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
