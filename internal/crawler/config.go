// Package crawler implements the polite, breadth-first documentation
// crawler: discover pages from a start URL, extract and chunk their text,
// embed and upsert each chunk, following links within configured depth,
// domain, and pattern constraints.
//
// Grounded on original_source/src/crawler/engine.rs (Crawler::crawl,
// crawl_page, should_follow_links, extract_and_queue_urls,
// should_crawl_url) for algorithmic semantics, and on the construction
// style of other_examples/0eb3340d_jai0651-open-exa (CLI orchestration) and
// other_examples/b4c583a6_knoguchi-rag (CrawlJob/SpiderConfig naming) since
// the teacher repo has no web crawler of its own.
package crawler

import "time"

// Mode controls link-following behavior.
type Mode int

const (
	SinglePage Mode = iota
	Section
	FullDocs
)

// Focus is an advisory hint about what part of the docs to prioritize; it
// does not change crawl mechanics in this implementation.
type Focus int

const (
	FocusAll Focus = iota
	FocusAPIReference
	FocusExamples
	FocusChangelog
	FocusQuickStart
)

// defaultIncludePatterns/defaultExcludePatterns bias toward documentation
// paths and away from community/discussion noise, matching the reference.
var (
	defaultIncludePatterns = []string{"docs/", "api/", "guide/", "reference/", "tutorial/", "manual/", "changelog/", "whatsnew/"}
	defaultExcludePatterns = []string{"blog/", "forum/", "community/", "discuss/", "issues/", "pull/", "commits/"}
)

// Config parameterizes one crawl.
type Config struct {
	StartURL           string
	Mode               Mode
	Focus              Focus
	MaxPages           int
	MaxDepth           int
	ConcurrentRequests int
	DelayMs            int
	UserAgent          string
	AllowedDomains     []string
	IncludePatterns    []string
	ExcludePatterns    []string
	RequestTimeout     time.Duration
}

// DefaultConfig returns the reference defaults: 2 concurrent requests,
// a 30s per-request timeout, and the reference include/exclude patterns.
func DefaultConfig(startURL string) Config {
	return Config{
		StartURL:           startURL,
		Mode:               FullDocs,
		Focus:              FocusAll,
		MaxPages:           100,
		MaxDepth:           3,
		ConcurrentRequests: 2,
		DelayMs:            250,
		UserAgent:          "docrag/1.0 (+https://github.com/coderag/docrag)",
		IncludePatterns:    defaultIncludePatterns,
		ExcludePatterns:    defaultExcludePatterns,
		RequestTimeout:     30 * time.Second,
	}
}

// followsLinks reports whether links should be extracted and queued from a
// page fetched at the given depth, per the crawl mode's follow policy.
func (c Config) followsLinks(depth int) bool {
	switch c.Mode {
	case SinglePage:
		return false
	case Section:
		return depth == 0
	default: // FullDocs
		return depth < c.MaxDepth
	}
}
