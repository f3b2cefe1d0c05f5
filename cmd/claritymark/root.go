// Package main provides the entry point for the claritymark CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for claritymark.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claritymark",
		Short: "Highlight claim text inside HTML documents",
		Long: `Claritymark locates claim or threat excerpts inside HTML documents and
rewrites them with highlight markers, styled by fact-check verdict.

Documents can come from files, URLs, or stdin. The rewritten HTML is
written to stdout (or a file) and a run report describes what matched.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMarkCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
