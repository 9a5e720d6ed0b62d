// Package config loads the sidecar configuration with Viper.
//
// Values come from a config.yml (searched in the usual cmd/ and config/
// locations), an optional .env file and the process environment. Nested keys
// can be set from the environment by joining the path with underscores, so
// REGISTRY_EUREKA_URL overrides registry.eureka.url.
//
//	var cfg MyConfig
//	err := config.LoadConfig("eureka-sidecar", &cfg,
//	    config.WithEnvAlias("registry.eureka.url", "EUREKA_SERVER_URL"))
package config
