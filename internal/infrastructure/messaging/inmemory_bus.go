// Package messaging carries domain events from the session lifecycle to their
// subscribers: in process, or across instances over Redis Pub/Sub.
package messaging

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

var (
	// ErrEventBusClosed is returned by every operation on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic wraps the value a subscriber panicked with.
	ErrHandlerPanic = errors.New("handler panicked")

	errNilEvent   = errors.New("event cannot be nil")
	errNilHandler = errors.New("handler cannot be nil")
)

// InMemoryEventBusConfig configures InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs subscribers on goroutines; Publish returns immediately.
	AsyncMode bool

	// WorkerPoolSize caps concurrently running subscribers in async mode.
	WorkerPoolSize int

	Logger *zap.Logger

	// EnableMetrics turns on delivery counters (see Stats).
	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig returns the configuration the binaries use.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		EnableMetrics:  true,
	}
}

// InMemoryEventBus dispatches events to subscribers of this process.
// A failing or panicking subscriber never affects the publisher or the
// other subscribers.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	wildcard []shared.EventHandler
	closed   bool

	async  bool
	slots  chan struct{}
	flight sync.WaitGroup

	logger *zap.Logger
	stats  *deliveryStats
}

// NewInMemoryEventBus creates a bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	b := &InMemoryEventBus{
		byType: make(map[shared.EventType][]shared.EventHandler),
		async:  config.AsyncMode,
		slots:  make(chan struct{}, config.WorkerPoolSize),
		logger: config.Logger.With(zap.String("component", "event_bus")),
	}
	if config.EnableMetrics {
		b.stats = newDeliveryStats()
	}
	return b
}

// Subscribe implements shared.EventSubscriber.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.byType[eventType] = append(b.byType[eventType], handler)
	return nil
}

// SubscribeAll implements shared.EventSubscriber.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.wildcard = append(b.wildcard, handler)
	return nil
}

// Publish implements shared.EventPublisher. Type subscribers run before
// wildcard subscribers, each group in subscription order (sync mode).
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	targets := make([]shared.EventHandler, 0, len(b.byType[event.EventType()])+len(b.wildcard))
	targets = append(targets, b.byType[event.EventType()]...)
	targets = append(targets, b.wildcard...)
	if b.async {
		b.flight.Add(len(targets))
	}
	b.mu.RUnlock()

	b.stats.published(event.EventType())

	for _, h := range targets {
		if b.async {
			go b.deliverAsync(event, h)
			continue
		}
		b.deliver(event, h)
	}
	return nil
}

func (b *InMemoryEventBus) deliverAsync(event shared.Event, h shared.EventHandler) {
	defer b.flight.Done()

	b.slots <- struct{}{}
	defer func() { <-b.slots }()
	b.deliver(event, h)
}

func (b *InMemoryEventBus) deliver(event shared.Event, h shared.EventHandler) {
	err := invoke(event, h)
	b.stats.delivered(err)
	if err != nil {
		b.logger.Error("event handler failed",
			zap.String("event_type", string(event.EventType())),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Error(err),
		)
	}
}

func invoke(event shared.Event, h shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(event)
}

// Close stops accepting events and waits until every accepted delivery ran.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.flight.Wait()
	return nil
}

// Stats returns the delivery counters; zero when metrics are disabled.
func (b *InMemoryEventBus) Stats() Stats {
	return b.stats.snapshot()
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY STATS
// ══════════════════════════════════════════════════════════════════════════════

// Stats is a point-in-time copy of the bus counters.
type Stats struct {
	Published  int64
	ByType     map[shared.EventType]int64
	Deliveries int64
	Failures   int64
	Panics     int64
}

// SuccessRate is the share of deliveries that returned no error; 1 when
// nothing was delivered.
func (s Stats) SuccessRate() float64 {
	if s.Deliveries == 0 {
		return 1
	}
	return float64(s.Deliveries-s.Failures) / float64(s.Deliveries)
}

// deliveryStats methods are safe on a nil receiver.
type deliveryStats struct {
	mu     sync.Mutex
	byType map[shared.EventType]int64

	events     atomic.Int64
	deliveries atomic.Int64
	failures   atomic.Int64
	panics     atomic.Int64
}

func newDeliveryStats() *deliveryStats {
	return &deliveryStats{byType: make(map[shared.EventType]int64)}
}

func (s *deliveryStats) published(t shared.EventType) {
	if s == nil {
		return
	}
	s.events.Add(1)
	s.mu.Lock()
	s.byType[t]++
	s.mu.Unlock()
}

func (s *deliveryStats) delivered(err error) {
	if s == nil {
		return
	}
	s.deliveries.Add(1)
	if err != nil {
		s.failures.Add(1)
		if errors.Is(err, ErrHandlerPanic) {
			s.panics.Add(1)
		}
	}
}

func (s *deliveryStats) snapshot() Stats {
	if s == nil {
		return Stats{ByType: map[shared.EventType]int64{}}
	}
	s.mu.Lock()
	byType := make(map[shared.EventType]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	s.mu.Unlock()

	return Stats{
		Published:  s.events.Load(),
		ByType:     byType,
		Deliveries: s.deliveries.Load(),
		Failures:   s.failures.Load(),
		Panics:     s.panics.Load(),
	}
}
