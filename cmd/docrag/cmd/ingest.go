package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coderag/docrag/internal/chunk"
	"github.com/coderag/docrag/internal/crawler"
	"github.com/coderag/docrag/internal/extract"
)

func newIngestCmd() *cobra.Command {
	var mode string
	var maxPages int
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "ingest <url>",
		Short: "Crawl a documentation site and add its content to the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			ccfg := crawler.DefaultConfig(args[0])
			ccfg.Mode = parseIngestMode(mode)
			ccfg.MaxPages = a.cfg.Crawler.MaxPages
			ccfg.MaxDepth = a.cfg.Crawler.MaxDepth
			ccfg.ConcurrentRequests = a.cfg.Crawler.ConcurrentRequests
			ccfg.DelayMs = a.cfg.Crawler.DelayMs
			if maxPages > 0 {
				ccfg.MaxPages = maxPages
			}
			if maxDepth > 0 {
				ccfg.MaxDepth = maxDepth
			}

			c := crawler.New(ccfg, extract.New(), a.logger, nil)
			chunker := chunk.New(chunk.HeadingStrategy(a.cfg.Search.ChunkSize, 100))

			result, err := c.Crawl(cmd.Context(), chunker, a.embedder, a.store)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("failed to persist index after ingest: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "crawled %d pages, created %d documents (%d chunks), %d failed\n",
				len(result.FetchedURLs), result.DocumentsCreated, result.ChunksCreated, result.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "full_docs", "single_page, section, or full_docs")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "override the configured max pages")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override the configured max depth")
	return cmd
}

func parseIngestMode(mode string) crawler.Mode {
	switch mode {
	case "single_page":
		return crawler.SinglePage
	case "section":
		return crawler.Section
	default:
		return crawler.FullDocs
	}
}
