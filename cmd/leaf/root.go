package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "leaf",
	Short: "Continuous-scroll document rendering service",
	Long: `Leaf renders document pages on demand for continuous-scroll viewing.

Pages are rasterized by a bounded worker pool and held in a byte-budgeted
cache; scrolling a session preloads the visible page and its neighbors,
and zooming reuses higher-resolution bitmaps until re-renders land.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.leaf/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "leaf home directory (default: ~/.leaf)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
