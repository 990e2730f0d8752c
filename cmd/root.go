// Package cmd defines the CLI commands for the about-harvester executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root command and registers subcommands.
func newRootCmd() *cobra.Command {
	opts := &scrapeOptions{}
	cmd := &cobra.Command{
		Use:   "about-harvester",
		Short: "Extracts business profile details from About pages with parallel headless browsers.",
		Long: `about-harvester reads a list of page URLs, opens each page's About
section in one of several headless Chrome sessions, dismisses the cookie
interstitial, and stores the profile fields it finds as one JSON record per
page.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json, or toml)")
	cmd.AddCommand(newScrapeCmd(opts))
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
