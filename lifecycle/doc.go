// Package lifecycle runs one independent register/heartbeat state machine per
// managed instance.
//
// An instance moves from registering to heartbeating, back to registering
// when the registry reports it unknown, and finally to stopped. Registration
// failures retry with capped exponential backoff up to a fixed budget. A
// failed heartbeat spawns a parallel backoff chain while the fixed-interval
// ticks keep firing.
//
// Stop is both cooperative and pre-emptive: it sets the session's stop flag,
// which every tick checks, and cancels the session context, which interrupts
// in-flight waits and registry calls. Stop returns only after the session's
// goroutines have exited, so a restarted instance never overlaps its
// predecessor.
package lifecycle
