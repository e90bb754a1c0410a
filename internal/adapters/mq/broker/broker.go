// Package broker is the in-process event bus that fans draft events out to connected
// clients.
//
// Every subscriber owns a bounded buffer. Publishing never blocks: when a subscriber's
// buffer is full the event is dropped for that subscriber, counted, and the subscriber is
// flagged so it can reload authoritative state.
package broker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// Default broker configuration constants.
const (
	defaultBufferSize  = 256
	defaultLogCapacity = realtime.DefaultLogCapacity
)

// Subscription receives the events of one connected client.
type Subscription struct {
	id      string
	client  string
	events  chan realtime.Event
	dropped atomic.Int64
	stale   atomic.Bool
	once    sync.Once
}

// ID is the unique subscription id.
func (s *Subscription) ID() string { return s.id }

// Client is the client id events are filtered by.
func (s *Subscription) Client() string { return s.client }

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan realtime.Event { return s.events }

// Dropped counts events lost to a full buffer.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Stale reports whether an event was dropped since the last call, and clears the flag.
func (s *Subscription) Stale() bool { return s.stale.Swap(false) }

func (s *Subscription) close() {
	s.once.Do(func() { close(s.events) })
}

// Broker implements realtime.Publisher over in-memory subscriptions.
type Broker struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	bufferSize int
	log        *realtime.Log
	closed     bool
	logger     logger.Logger
}

var _ realtime.Publisher = (*Broker)(nil)

// New creates a broker.
func New(opts ...Option) *Broker {
	b := &Broker{
		subs:       make(map[string]*Subscription),
		bufferSize: defaultBufferSize,
		logger:     logger.Get().Named("broker"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = realtime.NewLog(defaultLogCapacity)
	}
	metrics.UpdateSubscribers(0)
	return b
}

// Subscribe registers client and returns its subscription.
func (b *Broker) Subscribe(client string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	sub := &Subscription{
		id:     uuid.NewString(),
		client: client,
		events: make(chan realtime.Event, b.bufferSize),
	}
	b.subs[sub.id] = sub
	metrics.UpdateSubscribers(len(b.subs))
	return sub, nil
}

// Unsubscribe ends sub. It is safe to call more than once.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		sub.close()
		metrics.UpdateSubscribers(len(b.subs))
	}
}

// Publish records ev in the log and offers it to every subscriber except its origin.
func (b *Broker) Publish(ctx context.Context, ev realtime.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		metrics.RecordErrorByComponent("broker", "closed")
		return ErrClosed
	}
	ev = b.log.Append(ev)
	metrics.RecordEventPublished(string(ev.Type))

	for _, sub := range b.subs {
		if ev.Origin != "" && sub.client == ev.Origin {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			sub.dropped.Add(1)
			sub.stale.Store(true)
			metrics.RecordEventDropped(string(ev.Type))
			b.logger.Warn(ctx, "subscriber buffer full, event dropped",
				logger.String("client", sub.client),
				logger.String("event_id", ev.ID),
				logger.String("type", string(ev.Type)),
			)
		}
	}
	return nil
}

// Subscribers is the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Log exposes the event history for catch-up and replay.
func (b *Broker) Log() *realtime.Log { return b.log }

// Close ends every subscription. Later publishes fail with ErrClosed.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.close()
		delete(b.subs, id)
	}
	metrics.UpdateSubscribers(0)
	return nil
}

// IsClosed reports whether Close was called.
func (b *Broker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
