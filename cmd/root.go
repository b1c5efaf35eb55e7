package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "fdeconsole",
	Short: "Forward-deployed engineering operations console",
	Long: `fdeconsole serves the FDE operations API: integration jobs, a synthetic
error simulation with health tracking, alerting to Slack or email, and a
copilot for operators.`,
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// GetRootCmd is exposed for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
