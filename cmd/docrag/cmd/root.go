// Package cmd provides the CLI commands for docrag.
package cmd

import (
	"github.com/spf13/cobra"
)

var debugMode bool

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command for the docrag CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docrag",
		Short: "Local documentation retrieval engine for AI coding assistants",
		Long: `docrag serves a coding assistant over stdio JSON-RPC with hybrid
(vector + keyword) search over documentation you point it at.

Run 'docrag serve' in a project directory to start the MCP server; it
scopes its vector store to that project automatically.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newSourcesCmd())
	root.AddCommand(newManageCmd())
	root.AddCommand(newConfigCmd())

	return root
}
