// Package approval implements the human-in-the-loop rendezvous. A MANUAL
// decision registers a pending request keyed by correlation id, prompts the
// external channel, and suspends until an out-of-band resolution arrives or
// the configured timeout elapses.
package approval
