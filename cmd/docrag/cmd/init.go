package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coderag/docrag/configs"
	"github.com/coderag/docrag/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool
	var user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .docrag.yaml in the current directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(".", ".docrag.yaml")
			template := configs.ProjectConfigTemplate
			if user {
				path = config.GetUserConfigPath()
				template = configs.UserConfigTemplate
			} else if wd, err := os.Getwd(); err == nil {
				path = filepath.Join(wd, ".docrag.yaml")
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
			}
			if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&user, "user", false, "write the machine-level user config instead of the project config")
	return cmd
}
