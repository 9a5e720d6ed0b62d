// Package component defines the lifecycle contract shared by the sidecar's
// long-running parts (HTTP server, Redis client, instance coordinator).
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse order by the bootstrap package.
package component
