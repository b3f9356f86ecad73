package chunk

import "strings"

// forwardContextCues are substrings/suffixes on a chunk's trailing content
// that suggest the next chunk continues the same thought, and so should
// have its opening lines folded backward for context.
var forwardContextCues = []string{"following", "example", "see"}
var forwardContextSubstrings = []string{"continued", "next section"}

// addOverlapEnrichment prepends the tail of the previous chunk and appends
// the head of the next chunk for consecutive chunks, used by the Semantic
// and Heading strategies (FixedOverlap already carries its own overlap).
func addOverlapEnrichment(chunks []rawChunk) []rawChunk {
	for i := range chunks {
		if i > 0 {
			tail := tailContext(chunks[i-1].content, 20)
			if tail != "" {
				chunks[i].content = "…" + tail + "\n\n" + chunks[i].content
			}
		}
		if i < len(chunks)-1 && needsForwardContext(chunks[i].content) {
			head := headLines(chunks[i+1].content, 3)
			if head != "" {
				chunks[i].content = chunks[i].content + "\n\n" + head + "…"
			}
		}
	}
	return chunks
}

// tailContext returns the final n characters of s if that tail is
// substantive: longer than 20 characters and not pure punctuation/space.
func tailContext(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return ""
	}
	tail := string(runes[len(runes)-n:])
	if len(strings.TrimSpace(tail)) <= 20 {
		return ""
	}
	if !strings.ContainsAny(tail, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789") {
		return ""
	}
	return tail
}

func headLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func needsForwardContext(content string) bool {
	trimmed := strings.TrimSpace(content)
	if strings.HasSuffix(trimmed, ":") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, cue := range forwardContextCues {
		if strings.HasSuffix(lower, cue) {
			return true
		}
	}
	for _, sub := range forwardContextSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
