// Package logger provides structured logging for the sidecar using zerolog.
//
// Loggers are scoped by component and carry fields as plain maps:
//
//	log := logger.NewDefault("eureka-sidecar").WithComponent("lifecycle")
//	log.Info("registered", logger.Fields("service", "ORDERS", "attempt", 0))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
