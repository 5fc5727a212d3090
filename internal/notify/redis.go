package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventChannel = "classwatch:events"

	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// RedisBus carries events across instances over a redis pub/sub channel.
// Local subscribers are fed from the subscription loop, so every instance
// sees every event exactly once regardless of which one published it. When
// redis is unreachable the bus degrades to local-only delivery and reports
// Online() == false until the subscription is re-established.
type RedisBus struct {
	redis *redis.Client
	local *LocalBus
	log   *slog.Logger

	mu     sync.RWMutex
	online bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBus(redisClient *redis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{
		redis: redisClient,
		local: NewLocalBus(logger),
		log:   logger.With("component", "notify_redis_bus"),
	}
}

func (b *RedisBus) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.receiveLoop(ctx)
}

func (b *RedisBus) Close() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	return nil
}

func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	if err := b.redis.Publish(ctx, eventChannel, data).Err(); err != nil {
		// Degrade to in-process delivery so co-located dashboards keep
		// receiving pushes while redis is down.
		b.log.Warn("redis publish failed, delivering locally", "error", err, "kind", evt.Kind)
		b.setOnline(false)
		b.local.broadcast(evt)
		return nil
	}
	return nil
}

func (b *RedisBus) Subscribe(buffer int) (<-chan Event, func()) {
	return b.local.Subscribe(buffer)
}

func (b *RedisBus) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

func (b *RedisBus) setOnline(online bool) {
	b.mu.Lock()
	changed := b.online != online
	b.online = online
	b.mu.Unlock()

	if changed {
		if online {
			b.log.Info("realtime channel connected")
		} else {
			b.log.Warn("realtime channel lost, subscribers should poll")
		}
	}
}

func (b *RedisBus) receiveLoop(ctx context.Context) {
	defer close(b.done)

	backoff := reconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		pubsub := b.redis.Subscribe(ctx, eventChannel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			b.setOnline(false)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, reconnectMax)
			continue
		}

		b.setOnline(true)
		backoff = reconnectMin
		b.drain(ctx, pubsub)
		_ = pubsub.Close()
	}
}

func (b *RedisBus) drain(ctx context.Context, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.log.Warn("dropping malformed event", "error", err)
				continue
			}
			b.local.broadcast(evt)
		}
	}
}
