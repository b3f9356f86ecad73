package chunk

import (
	"regexp"
	"strings"
)

// headingPattern matches ATX headers H1-H6 with a required trailing space.
var headingPattern = regexp.MustCompile(`^(#{1,6}) (.+)$`)

// chunkHeading treats `#`-`######` prefixes as section markers and
// maintains a heading stack so each chunk carries the full breadcrumb
// (e.g. "H1 > H2"). The accumulator flushes when it reaches maxSize,
// carrying the current heading on overflow continuations and clearing it
// only when a fresh section starts.
func chunkHeading(text string, maxSize, minSize int) []rawChunk {
	lines := strings.Split(text, "\n")

	var out []rawChunk
	var current strings.Builder
	var headingStack [6]string
	var currentHeading, currentContext string

	flush := func() {
		if current.Len() == 0 {
			return
		}
		out = append(out, rawChunk{
			content:        strings.TrimRight(current.String(), "\n"),
			heading:        currentHeading,
			headingContext: currentContext,
		})
		current.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			level := len(m[1])
			headingText := strings.TrimSpace(m[2])

			if current.Len() >= minSize {
				flush()
			} else {
				current.Reset()
			}

			headingStack[level-1] = headingText
			for i := level; i < 6; i++ {
				headingStack[i] = ""
			}

			var parts []string
			for _, h := range headingStack {
				if h != "" {
					parts = append(parts, h)
				}
			}
			currentHeading = headingText
			currentContext = strings.Join(parts, " > ")
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if current.Len() >= maxSize {
			flush()
		}
	}

	if current.Len() > 0 {
		flush()
	}
	return out
}
