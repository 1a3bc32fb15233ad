package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for forumcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forumcrawl",
		Short: "Crawl forum sections into thread and post datasets",
		Long: `forumcrawl crawls forum sections of a XenForo board and exports
every thread and post as CSV (optionally zip compressed) datasets.

Listing pages are walked oldest thread first, thread pages are fetched in
throttled batches and parsed in parallel, and a checkpoint is written after
every chunk so that an aborted crawl still leaves a usable partial dataset.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
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
