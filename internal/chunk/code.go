package chunk

import "strings"

// codeKeywords are literal substrings whose presence marks a chunk as
// containing code, matching the reference detector.
var codeKeywords = []string{"function", "class", "def ", "const ", "let ", "var "}

// containsCode reports whether content looks like it contains a code block:
// a fenced marker, a four-space/tab indented line, or one of the language
// keyword substrings.
func containsCode(content string) bool {
	if strings.Contains(content, "```") {
		return true
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			return true
		}
	}
	for _, kw := range codeKeywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}
