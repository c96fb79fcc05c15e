package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/retry"
)

// DefaultChannel is the Pub/Sub channel used when none is configured.
const DefaultChannel = "mentoria:events"

// RedisClient is the slice of a Redis client the bus needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage is one message received on a subscription.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

// RedisEventBusConfig configures RedisEventBus.
type RedisEventBusConfig struct {
	Client RedisClient

	// ChannelName defaults to DefaultChannel.
	ChannelName string

	// InstanceID marks messages published by this process so that they are not
	// delivered twice. Generated when empty.
	InstanceID string

	// LocalBusConfig configures the bus that runs this instance's subscribers.
	LocalBusConfig InMemoryEventBusConfig

	Logger *zap.Logger
}

// RedisEventBus delivers every event to local subscribers and fans it out to
// other instances over Redis Pub/Sub. Other instances receive a RemoteEvent:
// subscribers that switch on concrete event types skip it, so side effects
// such as refusal penalties are applied once, by the publishing instance.
type RedisEventBus struct {
	client     RedisClient
	local      *InMemoryEventBus
	channel    string
	instanceID string
	retrier    *retry.Retrier
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	loop   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRedisEventBus subscribes to the channel and starts the receive loop.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = DefaultChannel
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.LocalBusConfig.Logger == nil {
		config.LocalBusConfig.Logger = config.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client:     config.Client,
		local:      NewInMemoryEventBus(config.LocalBusConfig),
		channel:    config.ChannelName,
		instanceID: config.InstanceID,
		retrier:    retry.PublishRetrier(),
		logger: config.Logger.With(
			zap.String("component", "redis_event_bus"),
			zap.String("instance_id", config.InstanceID),
		),
		ctx:    ctx,
		cancel: cancel,
	}

	messages, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		cancel()
		_ = b.local.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	b.loop.Add(1)
	go b.receive(messages)

	return b, nil
}

// Subscribe implements shared.EventSubscriber.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll implements shared.EventSubscriber.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish implements shared.EventPublisher. A Redis failure is logged and
// does not prevent local delivery.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errNilEvent
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	data, err := json.Marshal(eventEnvelope{
		InstanceID:  b.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	err = b.retrier.Do(b.ctx, func(ctx context.Context) error {
		return b.client.Publish(ctx, b.channel, string(data))
	})
	if err != nil {
		b.logger.Error("redis publish failed",
			zap.String("event_type", string(event.EventType())),
			zap.String("aggregate_id", event.AggregateID()),
			zap.Error(err),
		)
	}

	return b.local.Publish(event)
}

func (b *RedisEventBus) receive(messages <-chan RedisMessage) {
	defer b.loop.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if msg.Err != nil {
				b.logger.Error("redis subscription error", zap.Error(msg.Err))
				continue
			}
			b.dispatchRemote(msg.Payload)
		}
	}
}

func (b *RedisEventBus) dispatchRemote(payload string) {
	var env eventEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("dropping malformed event", zap.Error(err))
		return
	}
	if env.InstanceID == b.instanceID {
		return
	}

	if err := b.local.Publish(RemoteEvent{envelope: env}); err != nil && !errors.Is(err, ErrEventBusClosed) {
		b.logger.Error("remote event dispatch failed", zap.Error(err))
	}
}

// Close stops the receive loop, the subscription and the local bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.loop.Wait()

	if err := b.client.Close(); err != nil {
		b.logger.Warn("closing redis subscription", zap.Error(err))
	}
	return b.local.Close()
}

// Stats returns the counters of the local bus.
func (b *RedisEventBus) Stats() Stats {
	return b.local.Stats()
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type eventEnvelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// RemoteEvent is an event published by another instance. Only the envelope
// survives the wire; typed fields are available through Payload.
type RemoteEvent struct {
	envelope eventEnvelope
}

var _ shared.Event = RemoteEvent{}

// EventType implements shared.Event.
func (e RemoteEvent) EventType() shared.EventType { return e.envelope.EventType }

// AggregateID implements shared.Event.
func (e RemoteEvent) AggregateID() string { return e.envelope.AggregateID }

// OccurredAt implements shared.Event.
func (e RemoteEvent) OccurredAt() time.Time { return e.envelope.OccurredAt }

// Payload implements shared.Event.
func (e RemoteEvent) Payload() map[string]interface{} { return e.envelope.Payload }

// Origin is the instance that published the event.
func (e RemoteEvent) Origin() string { return e.envelope.InstanceID }
