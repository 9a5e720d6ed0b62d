// Package version reports the sidecar's build information.
package version
