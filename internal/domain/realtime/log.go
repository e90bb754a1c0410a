package realtime

import (
	"context"
	"sync"
)

// DefaultLogCapacity is how many events a Log keeps when no capacity is configured.
const DefaultLogCapacity = 4096

// Log is an append-only, bounded event history. Sequence numbers start at 1 and keep
// counting after old entries are trimmed.
type Log struct {
	mu       sync.RWMutex
	capacity int
	first    uint64
	events   []Event
}

// NewLog creates a log holding at most capacity events. capacity <= 0 keeps everything.
func NewLog(capacity int) *Log {
	return &Log{capacity: capacity, first: 1}
}

// Append records ev and returns it stamped with its sequence number.
func (l *Log) Append(ev Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.Seq = l.first + uint64(len(l.events))
	l.events = append(l.events, ev)
	if l.capacity > 0 && len(l.events) > l.capacity {
		drop := len(l.events) - l.capacity
		l.events = append(l.events[:0:0], l.events[drop:]...)
		l.first += uint64(drop)
	}
	return ev
}

// Last is the sequence number of the newest event, or 0 when empty.
func (l *Log) Last() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return l.first - 1
	}
	return l.first + uint64(len(l.events)) - 1
}

// Since returns the events after seq. complete is false when some of them were trimmed
// and the caller must reload instead.
func (l *Log) Since(seq uint64) (events []Event, complete bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq+1 < l.first {
		return append([]Event(nil), l.events...), false
	}
	idx := seq + 1 - l.first
	if idx >= uint64(len(l.events)) {
		return nil, true
	}
	return append([]Event(nil), l.events[idx:]...), true
}

// Len is the number of retained events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Replay applies every retained event to r in order, skipping events that r's client
// originated.
func (l *Log) Replay(ctx context.Context, r *Replica) error {
	events, _ := l.Since(0)
	for _, ev := range events {
		if ev.Origin != "" && ev.Origin == r.Client() {
			continue
		}
		if err := r.Apply(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
