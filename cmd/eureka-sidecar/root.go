package main

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "eureka-sidecar",
	Short: "Keeps non-JVM services registered with a Eureka server",
	Long: `eureka-sidecar registers a list of service instances with a service
registry, keeps their leases alive with heartbeats and re-registers them
when the registry forgets them. Running it without a subcommand serves.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: search ./cmd/eureka-sidecar, ./config and .)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file loaded before the environment")
}
