// Package extract converts fetched HTML into cleaned title/markdown text
// for the chunker. spec.md treats extraction as an external collaborator
// (extract(html, url) -> {title, markdown, metadata}); this package
// provides the concrete adapter the crawler calls through that interface.
package extract

import (
	"regexp"
	"strings"
)

// Result is the cleaned output of extracting one page.
type Result struct {
	Title    string
	Markdown string
	Links    []string
}

// Extractor converts raw HTML into a Result.
type Extractor interface {
	Extract(html, pageURL string) (Result, error)
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style|nav|footer|noscript)[^>]*>.*?</(script|style|nav|footer|noscript)>`)
	titleRe       = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	headingRe     = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	paragraphRe   = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	anchorRe      = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']([^"'#]+)["'][^>]*>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]+>`)
)

// HTMLExtractor is a lightweight regexp-based HTML-to-markdown extractor.
// It is intentionally simple: it is the out-of-scope collaborator, not a
// core retrieval-engine component.
type HTMLExtractor struct{}

func New() *HTMLExtractor { return &HTMLExtractor{} }

func (HTMLExtractor) Extract(html, pageURL string) (Result, error) {
	cleaned := scriptStyleRe.ReplaceAllString(html, "")

	title := ""
	if m := titleRe.FindStringSubmatch(cleaned); m != nil {
		title = decodeEntities(stripTags(m[1]))
	}

	var sb strings.Builder
	for _, m := range headingRe.FindAllStringSubmatch(cleaned, -1) {
		level := m[1]
		text := decodeEntities(stripTags(m[2]))
		if text == "" {
			continue
		}
		sb.WriteString(strings.Repeat("#", atoiSafe(level)))
		sb.WriteString(" ")
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	for _, m := range paragraphRe.FindAllStringSubmatch(cleaned, -1) {
		text := decodeEntities(stripTags(m[1]))
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	var links []string
	for _, m := range anchorRe.FindAllStringSubmatch(cleaned, -1) {
		links = append(links, m[1])
	}

	return Result{Title: title, Markdown: sb.String(), Links: links}, nil
}

func stripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}

func decodeEntities(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
	)
	return replacer.Replace(s)
}

func atoiSafe(s string) int {
	if len(s) != 1 || s[0] < '1' || s[0] > '6' {
		return 1
	}
	return int(s[0] - '0')
}
