package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the inbox admin CLI. Subcommands (auth,
// routes) are attached here.
var rootCmd = &cobra.Command{
	Use:           "inboxctl",
	Short:         "Inbox API admin CLI",
	Long:          "Administrative utilities for the inbox API (dev tokens, route listing).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
