// Package api exposes the sidecar's administrative HTTP surface: the
// actuator health, info and refresh endpoints, the loopback-only instance
// update and the clients view.
package api
