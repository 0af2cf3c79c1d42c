package alignment

import "strings"

// DefaultMaxWordsPerChunk is the alignment unit size used when none is configured
const DefaultMaxWordsPerChunk = 5

// SplitChunks splits text on whitespace and regroups the words into chunks of
// exactly maxWords words, the last chunk possibly shorter. Words inside a
// chunk are joined with single spaces. Blank text yields no chunks.
func SplitChunks(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWordsPerChunk
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for i := 0; i < len(words); i += maxWords {
		end := i + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	return chunks
}
