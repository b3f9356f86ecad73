package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyText(t *testing.T) {
	c := New(DefaultStrategy())
	assert.Empty(t, c.Chunk(""))
}

func TestChunkHeadingBreadcrumb(t *testing.T) {
	text := strings.Join([]string{
		"# Getting Started",
		longParagraph("intro", 150),
		"## Installation",
		longParagraph("install steps", 150),
		"### Prerequisites",
		longParagraph("prereqs needed before installing the package", 150),
	}, "\n")

	c := New(HeadingStrategy(2000, 50))
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	var sawBreadcrumb bool
	for _, ch := range chunks {
		if ch.HeadingContext == "Getting Started > Installation > Prerequisites" {
			sawBreadcrumb = true
		}
	}
	assert.True(t, sawBreadcrumb, "expected full breadcrumb for deepest heading")
}

func TestChunkDeduplication(t *testing.T) {
	text := longParagraph("identical repeated content block", 150)
	c := New(DefaultStrategy())

	first := c.Chunk(text)
	require.NotEmpty(t, first)

	second := c.Chunk(text)
	assert.Empty(t, second, "re-chunking identical content must be deduplicated")
}

func TestChunkQualityFilterRejectsNav(t *testing.T) {
	text := "Skip to main content. Toggle menu. Navigation breadcrumb links here and more and more text to pad."
	c := New(DefaultStrategy())
	assert.Empty(t, c.Chunk(text))
}

func TestChunkCodeDetection(t *testing.T) {
	text := "```go\nfunc main() {}\n```\n" + longParagraph("more surrounding prose to satisfy quality filter requirements", 20)
	c := New(SemanticStrategy(2000, 50))
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.True(t, chunks[0].HasCode)
}

func TestFixedOverlapSlicing(t *testing.T) {
	text := strings.Repeat("word ", 500)
	c := New(FixedOverlapStrategy(300, 50))
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 300+len("…")+70)
	}
}

func longParagraph(seed string, repeat int) string {
	return strings.Repeat(seed+" ", repeat)
}
