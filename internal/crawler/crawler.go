package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/coderag/docrag/internal/chunk"
	"github.com/coderag/docrag/internal/docset"
	"github.com/coderag/docrag/internal/extract"
)

// Embedder produces a fixed-length vector for a chunk of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Sink is the subset of the vector store the crawler writes through.
type Sink interface {
	Add(doc docset.Document, vec docset.Vector) (string, error)
}

// Progress reports live crawl state, rendered by internal/ui when attached
// to a TTY.
type Progress struct {
	Crawled    int
	Queued     int
	Failed     int
	CurrentURL string
}

// Result summarizes one completed crawl.
type Result struct {
	FetchedURLs     []string
	DocumentsCreated int
	ChunksCreated    int
	Failed           int
}

// Crawler runs one polite BFS crawl over a documentation site.
type Crawler struct {
	cfg       Config
	client    *http.Client
	limiter   *rateLimiter
	extractor extract.Extractor
	logger    *slog.Logger
	onProgress func(Progress)
}

// New builds a Crawler. logger and onProgress may be nil.
func New(cfg Config, extractor extract.Extractor, logger *slog.Logger, onProgress func(Progress)) *Crawler {
	if extractor == nil {
		extractor = extract.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter:   newRateLimiter(cfg.ConcurrentRequests),
		extractor: extractor,
		logger:    logger,
		onProgress: onProgress,
	}
}

type queueItem struct {
	url   string
	depth int
}

type pageOutcome struct {
	seq    int
	item   queueItem
	docs   []docset.Document
	vecs   []docset.Vector
	links  []string
	failed bool
}

// Crawl runs the BFS loop until a stopping rule fires: queue empty,
// crawled >= MaxPages, or ctx cancellation. It chunks and embeds each
// successfully fetched page and writes its documents to sink in per-page
// order, and in cross-page order matching dequeue order, even though
// fetches themselves run concurrently up to ConcurrentRequests.
func (c *Crawler) Crawl(ctx context.Context, chunker *chunk.Chunker, embedder Embedder, sink Sink) (Result, error) {
	queue := []queueItem{{url: c.cfg.StartURL, depth: 0}}
	visited := make(map[string]struct{})
	queued := make(map[string]struct{})

	sem := semaphore.NewWeighted(int64(max(1, c.cfg.ConcurrentRequests)))
	results := make(chan pageOutcome, 16)

	var dispatched, crawled, failed int
	pending := make(map[int]pageOutcome)
	nextWrite := 0
	var fetched []string
	var docsCreated, chunksCreated int

	inFlight := 0

	emit := func(currentURL string) {
		if c.onProgress != nil {
			c.onProgress(Progress{Crawled: crawled, Queued: len(queue), Failed: failed, CurrentURL: currentURL})
		}
	}

	processOutcome := func(o pageOutcome) {
		if o.failed {
			failed++
			return
		}
		for i, doc := range o.docs {
			if _, err := sink.Add(doc, o.vecs[i]); err == nil {
				chunksCreated++
			}
		}
		if len(o.docs) > 0 {
			docsCreated++
		}
		fetched = append(fetched, o.item.url)
		crawled++

		if c.cfg.followsLinks(o.item.depth) {
			for _, link := range o.links {
				abs := resolveURL(o.item.url, link)
				if abs == "" {
					continue
				}
				if _, seen := visited[abs]; seen {
					continue
				}
				if _, q := queued[abs]; q {
					continue
				}
				if !shouldCrawl(abs, c.cfg) {
					continue
				}
				queued[abs] = struct{}{}
				queue = append(queue, queueItem{url: abs, depth: o.item.depth + 1})
			}
		}
	}

	drain := func() {
		for nextWrite < dispatched {
			o, ok := pending[nextWrite]
			if !ok {
				return
			}
			processOutcome(o)
			delete(pending, nextWrite)
			nextWrite++
		}
	}

	for (len(queue) > 0 || inFlight > 0) && crawled < c.cfg.MaxPages {
		select {
		case <-ctx.Done():
			return Result{FetchedURLs: fetched, DocumentsCreated: docsCreated, ChunksCreated: chunksCreated, Failed: failed}, ctx.Err()
		default:
		}

		for len(queue) > 0 && crawled+inFlight < c.cfg.MaxPages {
			item := queue[0]
			queue = queue[1:]

			if item.depth > c.cfg.MaxDepth {
				continue
			}
			if _, seen := visited[item.url]; seen && item.url != c.cfg.StartURL {
				continue
			}
			visited[item.url] = struct{}{}

			if err := sem.Acquire(ctx, 1); err != nil {
				return Result{FetchedURLs: fetched, DocumentsCreated: docsCreated, ChunksCreated: chunksCreated, Failed: failed}, err
			}
			seq := dispatched
			dispatched++
			inFlight++

			go func(seq int, item queueItem) {
				defer sem.Release(1)
				outcome := c.fetchAndProcess(ctx, item, chunker, embedder)
				outcome.seq = seq
				outcome.item = item
				results <- outcome
			}(seq, item)

			time.Sleep(time.Duration(c.cfg.DelayMs) * time.Millisecond)
		}

		if inFlight == 0 {
			break
		}

		select {
		case o := <-results:
			inFlight--
			pending[o.seq] = o
			drain()
			emit(o.item.url)
		case <-ctx.Done():
			return Result{FetchedURLs: fetched, DocumentsCreated: docsCreated, ChunksCreated: chunksCreated, Failed: failed}, ctx.Err()
		}
	}

	for inFlight > 0 {
		o := <-results
		inFlight--
		pending[o.seq] = o
		drain()
	}
	drain()

	return Result{FetchedURLs: fetched, DocumentsCreated: docsCreated, ChunksCreated: chunksCreated, Failed: failed}, nil
}

// fetchAndProcess performs one page's fetch -> extract -> chunk -> embed
// pipeline. It never mutates shared crawler state; the caller serializes
// its result through the reorder buffer.
func (c *Crawler) fetchAndProcess(ctx context.Context, item queueItem, chunker *chunk.Chunker, embedder Embedder) pageOutcome {
	if err := c.limiter.wait(ctx); err != nil {
		return pageOutcome{failed: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.url, nil)
	if err != nil {
		return pageOutcome{failed: true}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("crawl fetch failed", slog.String("url", item.url), slog.String("error", err.Error()))
		return pageOutcome{failed: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		time.Sleep(10 * time.Second)
		return pageOutcome{failed: true}
	}
	if resp.StatusCode >= 400 {
		return pageOutcome{failed: true}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pageOutcome{failed: true}
	}

	extracted, err := c.extractor.Extract(string(body), item.url)
	if err != nil {
		return pageOutcome{failed: true}
	}

	chunks := chunker.Chunk(extracted.Markdown)
	docs := make([]docset.Document, 0, len(chunks))
	vecs := make([]docset.Vector, 0, len(chunks))

	for i, ch := range chunks {
		vec, err := embedder.Embed(ctx, ch.Content)
		if err != nil {
			continue
		}
		tag := "no-code"
		if ch.HasCode {
			tag = "has-code"
		}
		docs = append(docs, docset.Document{
			ID:      fmt.Sprintf("%s_chunk_%d", item.url, i),
			Content: ch.Content,
			URL:     item.url,
			Title:   extracted.Title,
			Section: ch.HeadingContext,
			Metadata: docset.Metadata{
				ContentType: docset.ContentTypeDocumentation,
				Tags:        []string{tag, fmt.Sprintf("chunk-%d-of-%d", i+1, len(chunks))},
			},
		})
		vecs = append(vecs, docset.Vector{Values: vec})
	}

	return pageOutcome{docs: docs, vecs: vecs, links: extracted.Links}
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(refURL)
	resolved.Fragment = ""
	return resolved.String()
}

