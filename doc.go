// Package posmock is a configurable mock responder for three simulated
// point-of-sale edges: a payment terminal, a fiscal printer and a kitchen
// display. Each service answers under a per-service policy - always succeed,
// always fail, draw from a shuffled success/failure sequence, or defer to a
// human approver reachable through an external notification channel.
package posmock
