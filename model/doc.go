// Package model holds the shared vocabulary of the responder: service names,
// response modes, outcomes, per-service policies and the decision log entry.
// Every other package speaks in these types; none of them carry behaviour
// beyond validation and cloning.
package model
