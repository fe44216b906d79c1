// Package engine produces the success/failure verdict for one inbound
// transaction by dispatching on the owning service's current mode. The
// engine is pure: it never logs a decision itself, the orchestrating layer
// records it.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/policy"
	"github.com/posmock/posmock/tracing"
)

// Approver suspends a decision until an out-of-band resolution or timeout.
type Approver interface {
	Await(ctx context.Context, service string, payload map[string]interface{}, timeout time.Duration, defaultOutcome model.Outcome) (model.Outcome, error)
}

// Service is the decision engine.
type Service struct {
	policies *policy.Store
	approver Approver
}

// New creates an engine over the given policy store and approval rendezvous.
func New(policies *policy.Store, approver Approver) *Service {
	return &Service{policies: policies, approver: approver}
}

// Decide returns the verdict for one transaction of the named service,
// together with the mode that produced it so the caller can record both.
// The policy is snapshotted once: an operator flipping the mode mid-flight
// never corrupts a decision already under way.
//
// A SEQUENCE policy with both counts zero yields no outcome; such degenerate
// draws resolve as failure, matching what callers of the simulated edges
// expect from an unconfigured sequence.
func (s *Service) Decide(ctx context.Context, service string, payload map[string]interface{}) (succeeded bool, mode model.ServiceMode, err error) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("engine.decide %s", service), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	p, err := s.policies.Get(service)
	if err != nil {
		return false, "", err
	}
	mode = p.Mode
	span.WithAttributes(map[string]string{"service": service, "mode": string(mode)})

	switch p.Mode {
	case model.ModeAutoSuccess:
		return true, mode, nil
	case model.ModeAutoFailure:
		return false, mode, nil
	case model.ModeSequence:
		outcome, ok, serr := s.policies.NextSequenceOutcome(service)
		if serr != nil {
			err = serr
			return false, mode, err
		}
		if !ok {
			return false, mode, nil
		}
		return outcome.Succeeded(), mode, nil
	case model.ModeManual:
		outcome, aerr := s.approver.Await(ctx, service, payload, p.Timeout, p.DefaultOutcome)
		if aerr != nil {
			err = aerr
			return outcome.Succeeded(), mode, err
		}
		return outcome.Succeeded(), mode, nil
	}
	err = fmt.Errorf("engine: unsupported mode %q for %s", p.Mode, service)
	return false, mode, err
}
