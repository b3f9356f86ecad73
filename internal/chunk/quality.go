package chunk

import (
	"strings"
	"unicode"
)

const minChunkSize = 100

// navIndicators are substrings that mark a chunk as site navigation chrome
// rather than content, matching the reference chunker's fixed list.
var navIndicators = []string{
	"skip to", "toggle", "menu", "navigation", "breadcrumb",
	"| next |", "| previous |", "| index |", "table of contents",
}

// isQualityContent applies the quality filter: reject chunks that are too
// short, mostly non-alphabetic, noisier in punctuation than letters, site
// navigation chrome, or more than half duplicate lines.
func isQualityContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minChunkSize {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, indicator := range navIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}

	var alpha, punct, total int
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r):
			alpha++
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			punct++
		}
	}
	if total == 0 {
		return false
	}
	if alpha < total/3 {
		return false
	}
	if punct > alpha {
		return false
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) > 1 {
		unique := make(map[string]struct{}, len(lines))
		for _, l := range lines {
			unique[strings.TrimSpace(l)] = struct{}{}
		}
		if len(unique) < len(lines)/2 {
			return false
		}
	}

	return true
}
