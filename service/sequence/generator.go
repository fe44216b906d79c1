// Package sequence builds and replenishes the shuffled outcome queue a
// SEQUENCE-mode policy draws from.
package sequence

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/posmock/posmock/model"
)

// ErrMalformedSpec signals negative success/failure counts on a SEQUENCE
// policy update. The prior policy stays in effect when it is returned.
var ErrMalformedSpec = errors.New("sequence: outcome counts must be non-negative")

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func shuffle(outcomes []model.Outcome) {
	rngMu.Lock()
	rng.Shuffle(len(outcomes), func(i, j int) {
		outcomes[i], outcomes[j] = outcomes[j], outcomes[i]
	})
	rngMu.Unlock()
}

// Build produces a uniformly-random permutation of the multiset holding
// successCount successes and failureCount failures.
func Build(successCount, failureCount int) ([]model.Outcome, error) {
	if successCount < 0 || failureCount < 0 {
		return nil, ErrMalformedSpec
	}
	outcomes := make([]model.Outcome, 0, successCount+failureCount)
	for i := 0; i < successCount; i++ {
		outcomes = append(outcomes, model.OutcomeSuccess)
	}
	for i := 0; i < failureCount; i++ {
		outcomes = append(outcomes, model.OutcomeFailure)
	}
	shuffle(outcomes)
	return outcomes, nil
}

// Next pops the head of state.Remaining. Draining the queue replenishes it
// from the original counts with a fresh shuffle before returning, so two
// consecutive pulls never observe an empty queue while the counts sum to a
// positive number. The second return value is false when both counts are
// zero and no outcome exists.
//
// Callers serialise access to state; the policy store invokes Next under its
// own lock.
func Next(state *model.SequenceState) (model.Outcome, bool) {
	if state == nil || state.SuccessCount+state.FailureCount == 0 {
		return "", false
	}
	if len(state.Remaining) == 0 {
		remaining, err := Build(state.SuccessCount, state.FailureCount)
		if err != nil {
			return "", false
		}
		state.Remaining = remaining
	}
	outcome := state.Remaining[0]
	state.Remaining = state.Remaining[1:]
	if len(state.Remaining) == 0 {
		remaining, _ := Build(state.SuccessCount, state.FailureCount)
		state.Remaining = remaining
	}
	return outcome, true
}
