// Package audit keeps the append-only, capacity-bounded record of every
// decision the responder makes.
package audit

import (
	"sync"

	"github.com/posmock/posmock/model"
)

// DefaultCapacity bounds the in-memory decision log.
const DefaultCapacity = 1000

// Log is a fixed-capacity ring buffer of decision records. Append is O(1)
// and never fails; once full the oldest entry is evicted silently. Entries
// are never mutated after insertion.
type Log struct {
	mu       sync.RWMutex
	entries  []*model.LogEntry
	capacity int
	next     int
	size     int
}

// NewLog creates a log holding at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]*model.LogEntry, capacity),
		capacity: capacity,
	}
}

// Append records an entry, evicting the oldest when the buffer is full.
func (l *Log) Append(entry *model.LogEntry) {
	if entry == nil {
		return
	}
	l.mu.Lock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % l.capacity
	if l.size < l.capacity {
		l.size++
	}
	l.mu.Unlock()
}

// Recent returns up to n entries, newest first. n larger than the capacity
// is capped at the buffer size.
func (l *Log) Recent(n int) []*model.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > l.size {
		n = l.size
	}
	out := make([]*model.LogEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + l.capacity*2) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Snapshot returns all retained entries in insertion order, oldest first.
func (l *Log) Snapshot() []*model.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.LogEntry, 0, l.size)
	for i := l.size; i >= 1; i-- {
		idx := (l.next - i + l.capacity*2) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int { return l.capacity }
