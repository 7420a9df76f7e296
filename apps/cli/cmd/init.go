package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/fetchkit/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [baseUrl]",
	Short: "Create a .fetchkit.yaml config file",
	Long: `Create a .fetchkit.yaml config file in the current directory with the
default settings and an optional base URL.

Examples:
  fetchkit init
  fetchkit init https://api.example.com
  fetchkit init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return writeInitConfig(cmd, cwd, args, forceInit)
}

func writeInitConfig(cmd *cobra.Command, dir string, args []string, force bool) error {
	configFile := filepath.Join(dir, ".fetchkit.yaml")

	if !force {
		if _, err := os.Stat(configFile); err == nil {
			return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile))
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://localhost:3000"
	if len(args) == 1 {
		cfg.BaseURL = args[0]
	}
	cfg.Headers = map[string]string{"Accept": "application/json"}

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'fetchkit request /health' to send a request to %s.\n", cfg.BaseURL)

	return nil
}
