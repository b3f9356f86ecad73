package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/coderag/docrag/internal/ann"
	"github.com/coderag/docrag/internal/apperrors"
	"github.com/coderag/docrag/internal/chunk"
	"github.com/coderag/docrag/internal/config"
	"github.com/coderag/docrag/internal/crawler"
	"github.com/coderag/docrag/internal/embed"
	"github.com/coderag/docrag/internal/extract"
	"github.com/coderag/docrag/internal/project"
	"github.com/coderag/docrag/internal/search"
	"github.com/coderag/docrag/internal/store"
	"github.com/coderag/docrag/pkg/version"
)

// Server bridges an AI coding assistant with the retrieval engine (store,
// ANN index built on demand, BM25 index built on demand, crawler) over the
// Model Context Protocol, matching the teacher's internal/mcp.Server shape
// trimmed to the five tools spec.md §6 names: search, list_sources, ingest,
// reload, manage.
type Server struct {
	mcp      *mcp.Server
	store    *store.Store
	cfg      *config.Config
	embedder embed.Embedder
	info     *project.Info
	logger   *slog.Logger

	mu sync.RWMutex
}

// New creates a docrag MCP server over the given store and configuration.
// info is nil when the store is using the per-user global path rather than
// a detected project root.
func New(st *store.Store, cfg *config.Config, embedder embed.Embedder, info *project.Info, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:    st,
		cfg:      cfg,
		embedder: embedder,
		info:     info,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "docrag",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server, e.g. to call Run(ctx, transport).
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve runs the server until ctx is canceled or the transport's stdio pipe
// closes. Only stdio is supported: the outer protocol layer (SSE/HTTP
// framing, request routing) is out of scope for the retrieval engine.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting docrag MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid (vector + keyword) search over the project's indexed documentation. Use this before reading raw files to find the most relevant section quickly.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_sources",
		Description: "List every crawled source URL currently in the index, with chunk counts. Use to check what documentation has already been ingested.",
	}, s.handleListSources)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest",
		Description: "Crawl a documentation site starting at a URL and add its content to the index. Use when list_sources shows the docs you need aren't indexed yet.",
	}, s.handleIngest)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "reload",
		Description: "Reload the vector store from disk, picking up changes made by another process (e.g. a concurrent ingest).",
	}, s.handleReload)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "manage",
		Description: "Administer the index: remove a source's chunks, prune entries older than N days, or clear the whole store.",
	}, s.handleManage)

	s.logger.Info("mcp tools registered", slog.Int("count", 5))
}

// --- search ---

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query           string `json:"query" jsonschema:"the search query to execute"`
	Limit           int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	SourceSubstring string `json:"source_substring,omitempty" jsonschema:"restrict results to entries whose URL contains this substring"`
	BM25Only        bool   `json:"bm25_only,omitempty" jsonschema:"skip vector search and use keyword search only"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResult `json:"results" jsonschema:"ranked search results"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Title        string  `json:"title,omitempty"`
	Section      string  `json:"section,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	KeywordScore float64 `json:"keyword_score"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if in.Query == "" {
		return nil, SearchOutput{}, newInvalidParamsError("query is required")
	}

	s.mu.RLock()
	st := s.store
	cfg := s.cfg
	embedder := s.embedder
	s.mu.RUnlock()

	if st == nil {
		return nil, SearchOutput{}, mapError(ErrStoreNotFound)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	var queryVec []float32
	if !in.BM25Only && embedder != nil {
		v, err := embedder.Embed(ctx, in.Query)
		if err != nil {
			s.logger.Warn("query embedding failed, falling back to keyword-only", slog.String("error", err.Error()))
		} else {
			queryVec = v
		}
	}

	annIndex := buildANNIndex(st, cfg)
	opts := search.DefaultOptions(limit)
	opts.VectorWeight = cfg.Search.VectorWeight
	opts.KeywordWeight = cfg.Search.KeywordWeight
	opts.BM25 = search.BM25Params{K1: cfg.Search.BM25K1, B: cfg.Search.BM25B}
	if queryVec == nil {
		// No embedding available for this query: zero the vector's
		// contribution. An all-zero query vector of the store's dimension (rather than nil) keeps
		// it dimension-compatible so the ANN search's cosine similarity
		// resolves to a finite 0 instead of the +Inf distance a mismatched
		// length would produce.
		opts.VectorWeight = 0
		opts.KeywordWeight = 1
		if st.Dimension() > 0 {
			queryVec = make([]float32, st.Dimension())
		}
	}
	opts.Filters.SourceSubstring = in.SourceSubstring

	hits := search.HybridSearch(annIndex, st.Entries(), queryVec, in.Query, opts)

	out := SearchOutput{Results: make([]SearchResult, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, SearchResult{
			ID:           h.Document.ID,
			URL:          h.Document.URL,
			Title:        h.Document.Title,
			Section:      h.Document.Section,
			Content:      h.Document.Content,
			Score:        h.CombinedScore,
			VectorScore:  h.VectorScore,
			KeywordScore: h.KeywordScore,
		})
	}

	return nil, out, nil
}

// --- list_sources ---

// ListSourcesInput takes no parameters.
type ListSourcesInput struct{}

// ListSourcesOutput reports the crawled sources and their chunk counts.
type ListSourcesOutput struct {
	Sources []SourceInfo `json:"sources"`
	Total   int          `json:"total_chunks"`
}

// SourceInfo is one source URL's chunk count.
type SourceInfo struct {
	URL    string `json:"url"`
	Chunks int    `json:"chunks"`
}

func (s *Server) handleListSources(_ context.Context, _ *mcp.CallToolRequest, _ ListSourcesInput) (*mcp.CallToolResult, ListSourcesOutput, error) {
	s.mu.RLock()
	st := s.store
	s.mu.RUnlock()

	if st == nil {
		return nil, ListSourcesOutput{}, mapError(ErrStoreNotFound)
	}

	counts := st.SourceCounts()
	urls := make([]string, 0, len(counts))
	for u := range counts {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	out := ListSourcesOutput{Total: st.Count()}
	for _, u := range urls {
		out.Sources = append(out.Sources, SourceInfo{URL: u, Chunks: counts[u]})
	}
	return nil, out, nil
}

// --- ingest ---

// IngestInput parameterizes a crawl.
type IngestInput struct {
	URL       string `json:"url" jsonschema:"start URL to crawl"`
	Mode      string `json:"mode,omitempty" jsonschema:"single_page, section, or full_docs (default full_docs)"`
	MaxPages  int    `json:"max_pages,omitempty" jsonschema:"maximum pages to crawl"`
	MaxDepth  int    `json:"max_depth,omitempty" jsonschema:"maximum link-following depth"`
}

// IngestOutput summarizes a completed crawl.
type IngestOutput struct {
	FetchedURLs      int `json:"fetched_urls"`
	DocumentsCreated int `json:"documents_created"`
	ChunksCreated    int `json:"chunks_created"`
	Failed           int `json:"failed"`
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, in IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	if in.URL == "" {
		return nil, IngestOutput{}, newInvalidParamsError("url is required")
	}

	s.mu.Lock()
	st := s.store
	cfg := s.cfg
	embedder := s.embedder
	s.mu.Unlock()

	if st == nil {
		return nil, IngestOutput{}, mapError(ErrStoreNotFound)
	}
	if embedder == nil {
		return nil, IngestOutput{}, mapError(apperrors.New(apperrors.ErrCodeModelDownload, "no embedder configured", nil))
	}

	ccfg := crawler.DefaultConfig(in.URL)
	ccfg.Mode = parseMode(in.Mode)
	ccfg.MaxPages = cfg.Crawler.MaxPages
	ccfg.MaxDepth = cfg.Crawler.MaxDepth
	ccfg.ConcurrentRequests = cfg.Crawler.ConcurrentRequests
	ccfg.DelayMs = cfg.Crawler.DelayMs
	if in.MaxPages > 0 {
		ccfg.MaxPages = in.MaxPages
	}
	if in.MaxDepth > 0 {
		ccfg.MaxDepth = in.MaxDepth
	}

	c := crawler.New(ccfg, extract.New(), s.logger, nil)
	chunker := chunk.New(chunk.HeadingStrategy(cfg.Search.ChunkSize, 100))

	result, err := c.Crawl(ctx, chunker, embedder, st)
	if err != nil {
		return nil, IngestOutput{}, mapError(err)
	}

	if err := st.Save(); err != nil {
		return nil, IngestOutput{}, mapError(apperrors.StoreIO("failed to persist index after ingest", err))
	}

	return nil, IngestOutput{
		FetchedURLs:      len(result.FetchedURLs),
		DocumentsCreated: result.DocumentsCreated,
		ChunksCreated:    result.ChunksCreated,
		Failed:           result.Failed,
	}, nil
}

func parseMode(mode string) crawler.Mode {
	switch mode {
	case "single_page":
		return crawler.SinglePage
	case "section":
		return crawler.Section
	default:
		return crawler.FullDocs
	}
}

// --- reload ---

// ReloadInput takes no parameters.
type ReloadInput struct{}

// ReloadOutput reports the store state after reload.
type ReloadOutput struct {
	DocumentCount int `json:"document_count"`
}

func (s *Server) handleReload(_ context.Context, _ *mcp.CallToolRequest, _ ReloadInput) (*mcp.CallToolResult, ReloadOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil, ReloadOutput{}, mapError(ErrStoreNotFound)
	}
	if err := s.store.Load(); err != nil {
		return nil, ReloadOutput{}, mapError(apperrors.StoreIO("failed to reload store", err))
	}
	return nil, ReloadOutput{DocumentCount: s.store.Count()}, nil
}

// --- manage ---

// ManageInput parameterizes an administrative action. Action is the
// free-form tool name for spec.md §6's manage(operation, target,
// max_age_days?, dry_run?): delete maps to remove_source/clear depending on
// whether a url or older_than_days is given, expire maps to
// remove_older_than, and refresh re-ingests a source in place.
type ManageInput struct {
	Action        string `json:"action" jsonschema:"one of: remove_source, remove_older_than, clear, refresh"`
	URL           string `json:"url,omitempty" jsonschema:"target source URL for remove_source or refresh"`
	OlderThanDays int    `json:"older_than_days,omitempty" jsonschema:"required for remove_older_than"`
	DryRun        bool   `json:"dry_run,omitempty" jsonschema:"report what would change without mutating the store"`
}

// ManageOutput reports how many entries the action affected (or would
// affect, under dry_run).
type ManageOutput struct {
	Removed       int  `json:"removed"`
	DocumentCount int  `json:"document_count"`
	DryRun        bool `json:"dry_run,omitempty"`
	ChunksCreated int  `json:"chunks_created,omitempty"`
	Failed        int  `json:"failed,omitempty"`
}

func (s *Server) handleManage(ctx context.Context, _ *mcp.CallToolRequest, in ManageInput) (*mcp.CallToolResult, ManageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil, ManageOutput{}, mapError(ErrStoreNotFound)
	}

	var removed int
	switch in.Action {
	case "remove_source":
		if in.URL == "" {
			return nil, ManageOutput{}, newInvalidParamsError("url is required for remove_source")
		}
		if in.DryRun {
			return nil, ManageOutput{Removed: s.store.CountBySource(in.URL), DocumentCount: s.store.Count(), DryRun: true}, nil
		}
		removed = s.store.RemoveBySource(in.URL)
	case "remove_older_than":
		if in.OlderThanDays <= 0 {
			return nil, ManageOutput{}, newInvalidParamsError("older_than_days must be positive for remove_older_than")
		}
		if in.DryRun {
			return nil, ManageOutput{Removed: s.store.CountByAge(in.OlderThanDays, nowFunc()), DocumentCount: s.store.Count(), DryRun: true}, nil
		}
		removed = s.store.RemoveByAge(in.OlderThanDays, nowFunc())
	case "clear":
		if in.DryRun {
			return nil, ManageOutput{Removed: s.store.Count(), DocumentCount: s.store.Count(), DryRun: true}, nil
		}
		removed = s.store.Count()
		s.store.Clear()
	case "refresh":
		if in.URL == "" {
			return nil, ManageOutput{}, newInvalidParamsError("url is required for refresh")
		}
		if in.DryRun {
			return nil, ManageOutput{Removed: s.store.CountBySource(in.URL), DocumentCount: s.store.Count(), DryRun: true}, nil
		}
		return s.refreshSource(ctx, in.URL)
	default:
		return nil, ManageOutput{}, newInvalidParamsError(fmt.Sprintf("unknown action %q", in.Action))
	}

	if err := s.store.Save(); err != nil {
		return nil, ManageOutput{}, mapError(apperrors.StoreIO("failed to persist index after manage", err))
	}

	return nil, ManageOutput{Removed: removed, DocumentCount: s.store.Count()}, nil
}

// refreshSource drops a source's existing chunks and re-crawls it in place,
// implementing spec.md §6's "refresh" manage operation: a stale source is
// deleted and re-ingested under one lock hold so readers never see a gap
// where the source has neither its old nor new chunks.
func (s *Server) refreshSource(ctx context.Context, url string) (*mcp.CallToolResult, ManageOutput, error) {
	if s.embedder == nil {
		return nil, ManageOutput{}, mapError(apperrors.New(apperrors.ErrCodeModelDownload, "no embedder configured", nil))
	}

	removed := s.store.RemoveBySource(url)

	ccfg := crawler.DefaultConfig(url)
	ccfg.Mode = crawler.SinglePage
	ccfg.MaxPages = s.cfg.Crawler.MaxPages
	ccfg.MaxDepth = s.cfg.Crawler.MaxDepth
	ccfg.ConcurrentRequests = s.cfg.Crawler.ConcurrentRequests
	ccfg.DelayMs = s.cfg.Crawler.DelayMs

	c := crawler.New(ccfg, extract.New(), s.logger, nil)
	chunker := chunk.New(chunk.HeadingStrategy(s.cfg.Search.ChunkSize, 100))

	result, err := c.Crawl(ctx, chunker, s.embedder, s.store)
	if err != nil {
		return nil, ManageOutput{}, mapError(err)
	}

	if err := s.store.Save(); err != nil {
		return nil, ManageOutput{}, mapError(apperrors.StoreIO("failed to persist index after refresh", err))
	}

	return nil, ManageOutput{
		Removed:       removed,
		DocumentCount: s.store.Count(),
		ChunksCreated: result.ChunksCreated,
		Failed:        result.Failed,
	}, nil
}

// buildANNIndex rebuilds an in-memory HNSW index from the store's current
// entries. The ANN graph is not persisted (spec.md §5): it is cheap enough
// to rebuild per search session and this keeps the save/load format simple.
func buildANNIndex(st *store.Store, cfg *config.Config) *ann.Index {
	idx := ann.New(cfg.Search.ANN.ToParams(), rand.New(rand.NewSource(1)))
	for _, e := range st.Entries() {
		_ = idx.Add(e.ID, e.Vector.Values)
	}
	return idx
}

func nowFunc() time.Time {
	return time.Now()
}
