package chunk

import "strings"

// chunkSemantic splits on blank-line paragraph boundaries, accumulating
// paragraphs until maxSize would be exceeded, then flushing if the
// accumulator has reached minSize.
func chunkSemantic(text string, maxSize, minSize int) []rawChunk {
	paragraphs := strings.Split(text, "\n\n")

	var out []rawChunk
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		out = append(out, rawChunk{content: current.String()})
		current.Reset()
	}

	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(p)+2 > maxSize && current.Len() >= minSize {
			flush()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)

		if len(p) >= maxSize {
			flush()
		}
	}

	if current.Len() >= minSize {
		flush()
	}
	return out
}
