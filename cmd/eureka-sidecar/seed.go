package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/redis"
	"github.com/kbukum/eureka-sidecar/source"
)

var (
	seedFile   string
	seedFormat string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy an instance file into the redis key the redis source reads",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "instance file to publish (default: source.path)")
	seedCmd.Flags().StringVar(&seedFormat, "format", "", "json or yaml (default: by extension)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, envFile)
	if err != nil {
		return err
	}
	cfg.Redis.Enabled = true
	cfg.ApplyDefaults()
	if err := cfg.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	logger.Init(&cfg.Logging)
	log := logger.GetGlobalLogger().WithComponent("seed")

	path := seedFile
	if path == "" {
		path = cfg.Source.Path
	}
	if path == "" {
		path = "services.json"
	}
	list, err := source.NewFileSource(path, seedFormat, log).Load(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	comp := redis.NewComponent(cfg.Redis, log)
	if err := comp.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = comp.Stop(ctx) }()

	key := cfg.Source.RedisKey
	if key == "" {
		key = "instances"
	}
	if err := source.NewRedisSource(comp, key, log).Publish(ctx, list); err != nil {
		return err
	}

	log.Info("instances published", logger.Fields("count", len(list), "key", key, "file", path))
	fmt.Fprintf(cmd.OutOrStdout(), "published %d instances to %s\n", len(list), key)
	return nil
}
