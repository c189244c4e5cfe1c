package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "detctl",
	Short: "Development error tracer harness",
	Long: `detctl drives a development error tracer from a report script.

It wires the tracer with the sinks named in the configuration
(stderr, slog, cxdb, Prometheus) and prints the three category
logs once the script has been replayed.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./detctl.toml if present)")
}
