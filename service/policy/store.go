// Package policy owns the per-service decision configuration. Policies are
// replaced wholesale through Set and handed out as deep copies, so a reader
// never observes a half-updated policy and an in-flight manual wait keeps the
// snapshot it captured at start.
package policy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/sequence"
)

// ErrNotFound is returned when an unknown service is requested.
var ErrNotFound = errors.New("policy: unknown service")

// Store is the in-memory policy store. It can be replaced by a persistent
// implementation later without changing callers.
type Store struct {
	mu       sync.RWMutex
	policies map[string]*model.ServicePolicy
}

// NewStore seeds every known service with the default AUTO_SUCCESS policy.
func NewStore() *Store {
	policies := make(map[string]*model.ServicePolicy)
	for _, service := range model.Services() {
		policies[service] = model.DefaultPolicy()
	}
	return &Store{policies: policies}
}

// Get returns a copy of the service's current policy.
func (s *Store) Get(service string) (*model.ServicePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	return p.Clone(), nil
}

// All returns a copy of every service policy for introspection.
func (s *Store) All() map[string]*model.ServicePolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*model.ServicePolicy, len(s.policies))
	for service, p := range s.policies {
		out[service] = p.Clone()
	}
	return out
}

// Set replaces the service's policy wholesale. Entering SEQUENCE mode builds
// the shuffled outcome queue here, never in the caller; leaving it discards
// any sequence state. A malformed sequence spec rejects the update and the
// prior policy remains in effect.
func (s *Store) Set(service string, p *model.ServicePolicy) error {
	if p == nil {
		return fmt.Errorf("policy: nil policy for %s", service)
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("policy: invalid mode %q for %s", p.Mode, service)
	}
	next := p.Clone()
	if next.Mode == model.ModeSequence {
		if next.Sequence == nil {
			next.Sequence = &model.SequenceState{}
		}
		remaining, err := sequence.Build(next.Sequence.SuccessCount, next.Sequence.FailureCount)
		if err != nil {
			return err
		}
		next.Sequence.Remaining = remaining
	} else {
		next.Sequence = nil
	}
	if next.DefaultOutcome == "" {
		next.DefaultOutcome = model.OutcomeSuccess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[service]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	s.policies[service] = next
	return nil
}

// NextSequenceOutcome draws the next outcome for a SEQUENCE-mode service.
// The pull and the replenish-on-drain happen under the store lock so that
// concurrent decisions each consume exactly one element. The second return
// value is false when the service is not in SEQUENCE mode or the sequence is
// degenerate (both counts zero).
func (s *Store) NextSequenceOutcome(service string) (model.Outcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[service]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	if p.Mode != model.ModeSequence {
		return "", false, nil
	}
	outcome, ok := sequence.Next(p.Sequence)
	return outcome, ok, nil
}
