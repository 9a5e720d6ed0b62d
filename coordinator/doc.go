// Package coordinator ties the instance source, the store and the lifecycle
// engine together. It loads the configured instances at startup, starts a
// lifecycle for each of them, stops them all on shutdown and serves the
// administrative operations: refresh, update and the read-only listings.
package coordinator
