package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/eureka-sidecar/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		line := info.String()
		if !info.IsRelease() {
			line += " (development build)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
