// Package main provides the lexis CLI: the session server plus the
// migration, deck import, token and graph maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// cfgFile is an explicit config file; empty searches ./config.yaml.
var cfgFile string

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "lexis",
	Short: "Spaced-rehearsal vocabulary sessions over a word graph",
	Long: `lexis serves learning sessions that schedule vocabulary study groups,
build semantic word graphs for them and frame the graph for the learner.

Configuration comes from config.yaml, a .env file and LEXIS_* environment
variables, in increasing order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.Version = Version
}
