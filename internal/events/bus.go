package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink delivers one event to an external system.
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

// Bus fans events out to every sink from a buffered queue.
// Publish never blocks the caller; when the queue is full the event is dropped and logged.
type Bus struct {
	queue   chan Event
	sinks   []Sink
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewBus(bufferSize int, sinks ...Sink) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Bus{
		queue:   make(chan Event, bufferSize),
		sinks:   sinks,
		timeout: 5 * time.Second,
	}
}

// Start launches the delivery workers.
func (b *Bus) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.run()
	}
}

func (b *Bus) run() {
	defer b.wg.Done()
	for e := range b.queue {
		for _, sink := range b.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
			if err := sink.Send(ctx, e); err != nil {
				log.Printf("⚠️ event %s %s/%d not delivered to %s: %v", e.Type, e.Resource, e.ResourceID, sink.Name(), err)
			}
			cancel()
		}
	}
}

func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.queue <- e:
	default:
		log.Printf("⚠️ event queue full, dropping %s for %s/%d", e.Type, e.Resource, e.ResourceID)
	}
}

// Close stops accepting events and waits for queued ones to drain or ctx to expire.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}
