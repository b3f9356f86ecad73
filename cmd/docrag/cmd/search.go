package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coderag/docrag/internal/search"
)

func newSearchCmd() *cobra.Command {
	var limit int
	var sourceSubstring string
	var bm25Only bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search against the project's index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			ctx := cmd.Context()
			var queryVec []float32
			opts := search.DefaultOptions(limit)
			opts.VectorWeight = a.cfg.Search.VectorWeight
			opts.KeywordWeight = a.cfg.Search.KeywordWeight
			opts.BM25 = search.BM25Params{K1: a.cfg.Search.BM25K1, B: a.cfg.Search.BM25B}
			opts.Filters.SourceSubstring = sourceSubstring

			if !bm25Only {
				v, err := a.embedder.Embed(ctx, query)
				if err != nil {
					a.logger.Warn("query embedding failed, falling back to keyword-only", "error", err)
				} else {
					queryVec = v
				}
			}
			if queryVec == nil {
				opts.VectorWeight = 0
				opts.KeywordWeight = 1
				if a.store.Dimension() > 0 {
					queryVec = make([]float32, a.store.Dimension())
				}
			}

			annIndex := buildANNIndexForCLI(a)
			hits := search.HybridSearch(annIndex, a.store.Entries(), queryVec, query, opts)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}

			for i, h := range hits {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. [%.3f] %s\n", i+1, h.CombinedScore, h.Document.URL)
				fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", truncate(h.Document.Content, 200))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().StringVar(&sourceSubstring, "source", "", "restrict results to URLs containing this substring")
	cmd.Flags().BoolVar(&bm25Only, "bm25-only", false, "skip vector search and use keyword search only")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
