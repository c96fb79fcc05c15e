package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

var at = time.Date(2024, 8, 5, 15, 0, 0, 0, time.UTC)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false, EnableMetrics: true})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var typed, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventSessionRequested, func(e shared.Event) error {
		typed = append(typed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at, at)))
	require.NoError(t, bus.Publish(shared.NewFeedbackSubmittedEvent("s-1", "f-1", "e-1", 4, false, at)))

	assert.Equal(t, []shared.EventType{shared.EventSessionRequested}, typed)
	assert.Equal(t, []shared.EventType{shared.EventSessionRequested, shared.EventFeedbackSubmitted}, all)

	stats := bus.Stats()
	assert.Equal(t, int64(2), stats.Published)
	assert.Equal(t, int64(1), stats.ByType[shared.EventFeedbackSubmitted])
	assert.Equal(t, int64(3), stats.Deliveries)
}

func TestInMemoryEventBus_HandlerErrorsAndPanics(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("bad handler") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { calls++; return nil }))

	assert.NoError(t, bus.Publish(shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at, at)))
	assert.Equal(t, 1, calls)

	stats := bus.Stats()
	assert.Equal(t, int64(2), stats.Failures)
	assert.Equal(t, int64(1), stats.Panics)
	assert.InDelta(t, 1.0/3.0, stats.SuccessRate(), 0.001)
}

func TestInMemoryEventBus_AsyncWaitsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var n int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		atomic.AddInt32(&n, 1)
		return nil
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at, at)))
	}
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(5), atomic.LoadInt32(&n))

	assert.ErrorIs(t, bus.Publish(shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at, at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventSessionRequested, nil))
}

// fakeRedis is an in-process pub/sub that fans messages out to every subscriber.
type fakeRedis struct {
	mu        sync.Mutex
	subs      []chan RedisMessage
	published []string
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload := message.(string)
	f.published = append(f.published, payload)
	for _, ch := range f.subs {
		ch <- RedisMessage{Channel: channel, Payload: payload}
	}
	return nil
}

func (f *fakeRedis) Subscribe(_ context.Context, _ ...string) (<-chan RedisMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan RedisMessage, 16)
	f.subs = append(f.subs, ch)
	return ch, nil
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisEventBus_DeliversToOtherInstances(t *testing.T) {
	redis := &fakeRedis{}
	local := InMemoryEventBusConfig{AsyncMode: false}

	a, err := NewRedisEventBus(RedisEventBusConfig{Client: redis, InstanceID: "a", LocalBusConfig: local})
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisEventBus(RedisEventBusConfig{Client: redis, InstanceID: "b", LocalBusConfig: local})
	require.NoError(t, err)
	defer b.Close()

	var localHits int32
	require.NoError(t, a.SubscribeAll(func(shared.Event) error {
		atomic.AddInt32(&localHits, 1)
		return nil
	}))

	remote := make(chan shared.Event, 1)
	require.NoError(t, b.Subscribe(shared.EventSessionRequested, func(e shared.Event) error {
		remote <- e
		return nil
	}))

	require.NoError(t, a.Publish(shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at, at)))

	select {
	case e := <-remote:
		assert.Equal(t, "s-1", e.AggregateID())
		assert.Equal(t, "m-1", e.Payload()["mentor_id"])
		re, ok := e.(RemoteEvent)
		require.True(t, ok)
		assert.Equal(t, "a", re.Origin())
	case <-time.After(2 * time.Second):
		t.Fatal("remote instance did not receive the event")
	}

	// Своё сообщение экземпляр "a" не обрабатывает повторно.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&localHits))

	var env eventEnvelope
	require.Len(t, redis.published, 1)
	require.NoError(t, json.Unmarshal([]byte(redis.published[0]), &env))
	assert.Equal(t, "a", env.InstanceID)
	assert.Equal(t, shared.EventSessionRequested, env.EventType)
}

func TestInMemoryEventBus_StatsDisabled(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	require.NoError(t, bus.Publish(shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at, at)))
	stats := bus.Stats()
	assert.Zero(t, stats.Published)
	assert.Equal(t, 1.0, stats.SuccessRate())
}

func TestRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(RedisEventBusConfig{})
	assert.Error(t, err)
}
