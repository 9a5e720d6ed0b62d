// Package util holds small parsing and masking helpers shared by the
// server and registry packages.
package util
