// Package instance holds the service instance model and the in-memory store
// that is the source of truth for which instances should be running.
//
// The store keeps at most one record per case-insensitive service name and
// assigns process-local ids on first save.
package instance
