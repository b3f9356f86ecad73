package chunk

import (
	"strings"
	"unicode/utf8"
)

// chunkFixedOverlap emits slices of up to chunkSize runes with overlap runes
// carried forward between slices, preferring to end at the nearest
// preceding sentence terminator within the window.
func chunkFixedOverlap(text string, chunkSize, overlap int) []rawChunk {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []rawChunk{{content: text}}
	}

	var out []rawChunk
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			window := string(runes[start:end])
			if idx := lastSentenceBoundary(window); idx >= 0 {
				end = start + utf8.RuneCountInString(window[:idx]) + 1
			}
		}

		out = append(out, rawChunk{content: string(runes[start:end])})

		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

func lastSentenceBoundary(window string) int {
	best := -1
	for _, term := range []string{".", "!", "?", "\n"} {
		if idx := strings.LastIndex(window, term); idx > best {
			best = idx
		}
	}
	return best
}
