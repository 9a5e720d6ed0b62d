package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Register the configured instances and serve the admin API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, envFile)
	if err != nil {
		return err
	}
	sc, err := newSidecar(cfg)
	if err != nil {
		return err
	}
	return sc.app.Run(cmd.Context())
}
