package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/coderag/docrag/internal/crawler"
)

// PlainRenderer prints one progress line per update, for pipes and CI.
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error { return nil }

// Update implements Renderer.
func (r *PlainRenderer) Update(p crawler.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "[crawl] %d fetched, %d queued, %d failed - %s\n",
		p.Crawled, p.Queued, p.Failed, p.CurrentURL)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d pages crawled, %d documents, %d chunks in %s",
		s.PagesCrawled, s.DocumentsCreated, s.ChunksCreated, s.Duration.Round(millisecond))
	if s.PagesFailed > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d failed)", s.PagesFailed)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error { return nil }

const millisecond = 1000000

var _ Renderer = (*PlainRenderer)(nil)
