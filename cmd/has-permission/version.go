package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/mstuart/has-permission/internal/version"
	"github.com/spf13/cobra"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of has-permission",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "has-permission version %s\n", info)
		if !verbose {
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, detail := range info.Details() {
			fmt.Fprintf(w, "  %s:\t%s\n", detail[0], detail[1])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
