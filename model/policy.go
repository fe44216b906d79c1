package model

import "time"

// Known simulated services.
const (
	ServicePayment = "payment"
	ServiceFiscal  = "fiscal"
	ServiceKDS     = "kds"
)

// Services lists the simulated services in their canonical order.
func Services() []string {
	return []string{ServicePayment, ServiceFiscal, ServiceKDS}
}

// SequenceState carries the success/failure counts a SEQUENCE policy was
// configured with, plus the remaining shuffled outcomes. Remaining is always
// a permutation of SuccessCount successes and FailureCount failures while
// non-empty; it is replenished by the sequence generator when drained.
type SequenceState struct {
	SuccessCount int       `json:"successCount" yaml:"successCount"`
	FailureCount int       `json:"failureCount" yaml:"failureCount"`
	Remaining    []Outcome `json:"remaining,omitempty" yaml:"remaining,omitempty"`
}

// Clone returns a deep copy.
func (s *SequenceState) Clone() *SequenceState {
	if s == nil {
		return nil
	}
	return &SequenceState{
		SuccessCount: s.SuccessCount,
		FailureCount: s.FailureCount,
		Remaining:    append([]Outcome(nil), s.Remaining...),
	}
}

// ServicePolicy is the per-service decision configuration. It is owned by the
// policy store and replaced wholesale on update, never mutated in place.
type ServicePolicy struct {
	Mode           ServiceMode    `json:"mode" yaml:"mode"`
	Timeout        time.Duration  `json:"timeout" yaml:"timeout"`
	DefaultOutcome Outcome        `json:"defaultOutcome" yaml:"defaultOutcome"`
	Sequence       *SequenceState `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// Clone returns a deep copy so that readers never share mutable state with
// the store.
func (p *ServicePolicy) Clone() *ServicePolicy {
	if p == nil {
		return nil
	}
	return &ServicePolicy{
		Mode:           p.Mode,
		Timeout:        p.Timeout,
		DefaultOutcome: p.DefaultOutcome,
		Sequence:       p.Sequence.Clone(),
	}
}

// DefaultPolicy returns the policy every service starts with.
func DefaultPolicy() *ServicePolicy {
	return &ServicePolicy{
		Mode:           ModeAutoSuccess,
		Timeout:        30 * time.Second,
		DefaultOutcome: OutcomeSuccess,
	}
}
