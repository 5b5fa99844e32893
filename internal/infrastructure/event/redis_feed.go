package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

const feedCloseTimeout = 5 * time.Second

// feedEnvelope wraps a change event with the publishing instance's ID so
// subscribers can skip their own messages.
type feedEnvelope struct {
	InstanceID string                      `json:"instance_id"`
	Event      *inventory.ItemChangedEvent `json:"event"`
}

// RedisChangeFeed relays item change events between server instances over
// Redis pub/sub. Locally published changes go out on the channel; changes
// from other instances are handed to the sink (the realtime hub) so every
// instance's connected clients stay current, whichever instance took the
// write.
type RedisChangeFeed struct {
	client     *redis.Client
	channel    string
	instanceID string
	sink       shared.EventHandler
	logger     *zap.Logger

	mu       sync.Mutex
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once
	running  bool
}

// NewRedisChangeFeed creates a change feed on an existing Redis client.
// The caller retains ownership of the client.
func NewRedisChangeFeed(client *redis.Client, channel string, sink shared.EventHandler, logger *zap.Logger) *RedisChangeFeed {
	return &RedisChangeFeed{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		sink:       sink,
		logger:     logger,
		doneCh:     make(chan struct{}),
	}
}

// EventTypes implements shared.EventHandler
func (f *RedisChangeFeed) EventTypes() []string {
	return []string{inventory.EventTypeItemChanged}
}

// Handle implements shared.EventHandler, relaying local changes outwards
func (f *RedisChangeFeed) Handle(ctx context.Context, event shared.DomainEvent) error {
	change, ok := event.(*inventory.ItemChangedEvent)
	if !ok {
		return nil
	}

	data, err := json.Marshal(feedEnvelope{InstanceID: f.instanceID, Event: change})
	if err != nil {
		return fmt.Errorf("failed to marshal change envelope: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		f.logger.Error("failed to publish change to redis",
			zap.String("channel", f.channel),
			zap.Error(err))
		return err
	}
	return nil
}

// Subscribe listens for changes from other instances and feeds them to
// the sink. Blocks until the context is cancelled; run it in a goroutine.
func (f *RedisChangeFeed) Subscribe(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	f.running = true
	subCtx, cancel := context.WithCancel(ctx)
	f.cancelFn = cancel
	f.mu.Unlock()

	pubsub := f.client.Subscribe(subCtx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	f.logger.Info("subscribed to change feed channel", zap.String("channel", f.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			f.mu.Lock()
			f.running = false
			f.mu.Unlock()
			f.markDone()
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				f.mu.Lock()
				f.running = false
				f.mu.Unlock()
				f.markDone()
				return nil
			}
			f.deliver(subCtx, msg.Payload)
		}
	}
}

func (f *RedisChangeFeed) deliver(ctx context.Context, payload string) {
	var envelope feedEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		f.logger.Error("failed to unmarshal change envelope", zap.Error(err))
		return
	}
	if envelope.InstanceID == f.instanceID || envelope.Event == nil {
		return
	}
	if err := f.sink.Handle(ctx, envelope.Event); err != nil {
		f.logger.Error("sink failed to process remote change", zap.Error(err))
	}
}

func (f *RedisChangeFeed) markDone() {
	f.doneOnce.Do(func() { close(f.doneCh) })
}

// Close stops the subscription and waits for it to drain
func (f *RedisChangeFeed) Close() error {
	f.mu.Lock()
	cancelFn := f.cancelFn
	f.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-f.doneCh:
		case <-time.After(feedCloseTimeout):
			f.logger.Warn("timeout waiting for change feed subscription to stop")
		}
	}
	return nil
}
