package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "jclgraph %s (IR %s)\n", okColor.Sprint(Version), ir.Version)
		if GitCommit != "" {
			fmt.Fprintf(w, "commit %s\n", GitCommit)
		}
	},
}
