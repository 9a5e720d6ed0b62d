// Package resilience provides the retry primitives used by the sidecar.
//
//   - Backoff: capped exponential delays (1s, 2s, 4s ... up to 60s)
//   - Sleep: a context-aware wait that stop requests can interrupt
//   - Retry: bounded retries with jittered exponential backoff
//
// The lifecycle engine drives its own attempt counters with Backoff and
// Sleep; Retry is used for one-shot work such as loading the instance list.
package resilience
