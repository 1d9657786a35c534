package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.buildVersion=..." at release time.
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Build version: %s\n", buildVersion)
		fmt.Fprintf(w, "Build date: %s\n", buildDate)
		fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
