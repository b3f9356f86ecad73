package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List indexed sources and their chunk counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			counts := a.store.SourceCounts()
			urls := make([]string, 0, len(counts))
			for u := range counts {
				urls = append(urls, u)
			}
			sort.Strings(urls)

			fmt.Fprintf(cmd.OutOrStdout(), "%d documents across %d sources\n", a.store.Count(), len(urls))
			for _, u := range urls {
				fmt.Fprintf(cmd.OutOrStdout(), "  %5d  %s\n", counts[u], u)
			}
			return nil
		},
	}
	return cmd
}
