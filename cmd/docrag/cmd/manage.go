package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coderag/docrag/internal/chunk"
	"github.com/coderag/docrag/internal/crawler"
	"github.com/coderag/docrag/internal/extract"
)

func newManageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Administer the index: remove a source, prune by age, or clear it",
	}
	cmd.AddCommand(newManageRemoveSourceCmd())
	cmd.AddCommand(newManageExpireCmd())
	cmd.AddCommand(newManageClearCmd())
	cmd.AddCommand(newManageRefreshCmd())
	return cmd
}

func newManageRemoveSourceCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "remove-source <url>",
		Short: "Remove every chunk indexed from the given source URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			if dryRun {
				count := a.store.CountBySource(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: would remove %d entries\n", count)
				return nil
			}

			removed := a.store.RemoveBySource(args[0])
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("failed to persist index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries, %d remaining\n", removed, a.store.Count())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be removed without removing it")
	return cmd
}

// newManageRefreshCmd drops a source's existing chunks and re-crawls it in
// place (spec.md §6's "refresh" manage operation), so a stale page can be
// re-ingested without first running a separate remove-source.
func newManageRefreshCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "refresh <url>",
		Short: "Drop a source's chunks and re-crawl it in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			url := args[0]

			if dryRun {
				count := a.store.CountBySource(url)
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: would remove %d entries and re-crawl %s\n", count, url)
				return nil
			}

			removed := a.store.RemoveBySource(url)

			ccfg := crawler.DefaultConfig(url)
			ccfg.Mode = crawler.SinglePage
			ccfg.MaxPages = a.cfg.Crawler.MaxPages
			ccfg.MaxDepth = a.cfg.Crawler.MaxDepth
			ccfg.ConcurrentRequests = a.cfg.Crawler.ConcurrentRequests
			ccfg.DelayMs = a.cfg.Crawler.DelayMs

			c := crawler.New(ccfg, extract.New(), a.logger, nil)
			chunker := chunk.New(chunk.HeadingStrategy(a.cfg.Search.ChunkSize, 100))

			result, err := c.Crawl(cmd.Context(), chunker, a.embedder, a.store)
			if err != nil {
				return fmt.Errorf("refresh crawl failed: %w", err)
			}
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("failed to persist index: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries, created %d chunks, %d failed, %d remaining\n",
				removed, result.ChunksCreated, result.Failed, a.store.Count())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be removed without removing it")
	return cmd
}

func newManageExpireCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "expire <older-than-days>",
		Short: "Remove documents not updated within the given number of days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var days int
			if _, err := fmt.Sscanf(args[0], "%d", &days); err != nil || days <= 0 {
				return fmt.Errorf("older-than-days must be a positive integer")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			if dryRun {
				count := a.store.CountByAge(days, time.Now())
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: would remove %d entries older than %d days\n", count, days)
				return nil
			}

			removed := a.store.RemoveByAge(days, time.Now())
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("failed to persist index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries, %d remaining\n", removed, a.store.Count())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be removed without removing it")
	return cmd
}

func newManageClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the index without --yes")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			a.store.Clear()
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("failed to persist index: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "index cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive clear")
	return cmd
}
