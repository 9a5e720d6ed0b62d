// Package source loads the externally supplied list of instances the sidecar
// should keep registered.
//
// A file source reads a JSON or YAML array; a Redis source reads the same
// JSON array from a single key. A missing or empty list is not an error: it
// loads nothing and logs a warning.
package source
