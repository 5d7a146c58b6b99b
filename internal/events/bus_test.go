package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu   sync.Mutex
	name string
	got  []Event
	fail bool
	gate chan struct{}
}

func (c *captureSink) Name() string { return c.name }

func (c *captureSink) Send(_ context.Context, e Event) error {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, e)
	if c.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func (c *captureSink) events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.got...)
}

func TestBusFansOutToEverySink(t *testing.T) {
	failing := &captureSink{name: "kafka", fail: true}
	ok := &captureSink{name: "redis"}
	bus := NewBus(8, failing, ok)
	bus.Start(1)

	bus.Publish(Event{Type: TypeCreated, Resource: "booking", ResourceID: 1, CounterID: "C1"})
	bus.Publish(Event{Type: TypeCollected, Resource: "booking", ResourceID: 1, CounterID: "C1"})
	require.NoError(t, bus.Close(context.Background()))

	got := ok.events()
	require.Len(t, got, 2)
	assert.Equal(t, TypeCreated, got[0].Type)
	assert.Equal(t, TypeCollected, got[1].Type)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].OccurredAt.IsZero())
	assert.Len(t, failing.events(), 2)
}

func TestPublishNeverBlocks(t *testing.T) {
	gate := make(chan struct{})
	slow := &captureSink{name: "slow", gate: gate}
	bus := NewBus(1, slow)
	bus.Start(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(Event{Type: TypeCreated, ResourceID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled sink")
	}

	close(gate)
	require.NoError(t, bus.Close(context.Background()))
	assert.Less(t, len(slow.events()), 50)
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	sink := &captureSink{name: "s"}
	bus := NewBus(4, sink)
	bus.Start(2)
	require.NoError(t, bus.Close(context.Background()))

	assert.NotPanics(t, func() { bus.Publish(Event{Type: TypeCreated}) })
	assert.Empty(t, sink.events())
}

func TestTopicSanitisesCounterID(t *testing.T) {
	assert.Equal(t, "counter_main-gate_2", Topic("main-gate 2"))
	assert.Equal(t, "counter_C1", Topic("C1"))
}

func TestPushTextOnlyForOperatorEvents(t *testing.T) {
	_, _, ok := pushText(Event{Type: TypeCreated})
	assert.False(t, ok)

	title, body, ok := pushText(Event{Type: TypeNoShow, CounterID: "C1", Payload: map[string]interface{}{"receipt_number": "000042"}})
	assert.True(t, ok)
	assert.Equal(t, "No-show recorded", title)
	assert.Contains(t, body, "000042")
}

func TestRedisChannelName(t *testing.T) {
	assert.Equal(t, "seva:events:counter:C7", NewRedisSink(nil, "").Channel("C7"))
}
