package approval

import (
	"fmt"
	"sort"
	"sync"

	"github.com/posmock/posmock/model"
)

// slot is the typed one-shot mailbox for a single correlation id. Exactly
// one of resolve/claim wins; the loser observes done and backs off.
type slot struct {
	request *Request
	ch      chan model.Outcome // buffered, written at most once
	done    bool
}

// Registry tracks in-flight manual requests by correlation id and owns their
// resolution slots. The notifier side resolves a wait without knowing which
// task is waiting; pure message passing keyed by id.
type Registry struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Add registers a pending request and returns the channel its resolution
// will be delivered on. Ids are unique; a duplicate registration is refused.
func (r *Registry) Add(req *Request) (<-chan model.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[req.ID]; ok {
		return nil, fmt.Errorf("approval: duplicate correlation id %s", req.ID)
	}
	s := &slot{request: req, ch: make(chan model.Outcome, 1)}
	r.slots[req.ID] = s
	return s.ch, nil
}

// Resolve delivers an external decision into the slot for id. It returns
// false when the id is unknown or the slot was already resolved or expired;
// such late and duplicate decisions are discarded without side effect.
func (r *Registry) Resolve(id string, outcome model.Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok || s.done {
		return false
	}
	s.done = true
	s.ch <- outcome
	return true
}

// Expire is called by the waiting task when its timeout fires. When a
// resolution won the race just before expiry its outcome is returned with
// resolved=true; otherwise the slot is closed so any later resolution finds
// nowhere to deliver. The entry is removed either way.
func (r *Registry) Expire(id string) (outcome model.Outcome, resolved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return "", false
	}
	delete(r.slots, id)
	if s.done {
		return <-s.ch, true
	}
	s.done = true
	return "", false
}

// Remove drops a resolved entry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.slots, id)
	r.mu.Unlock()
}

// Pending lists in-flight requests, oldest first.
func (r *Registry) Pending() []*Request {
	r.mu.Lock()
	out := make([]*Request, 0, len(r.slots))
	for _, s := range r.slots {
		if !s.done {
			out = append(out, s.request)
		}
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of tracked slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
