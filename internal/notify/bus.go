package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Bus is the publish path for session, alert and metrics updates. Publishing
// never blocks the caller's sweep; slow subscribers lose events rather than
// backpressuring the producer, and dashboards fall back to polling when
// Online reports false.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(buffer int) (<-chan Event, func())
	Online() bool
}

// LocalBus is the in-process Bus. It backs single-node deployments and
// tests, and serves as the fan-out stage behind RedisBus.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	log    *slog.Logger
}

func NewLocalBus(logger *slog.Logger) *LocalBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBus{
		subs: make(map[int]chan Event),
		log:  logger.With("component", "notify_bus"),
	}
}

func (b *LocalBus) Publish(_ context.Context, evt Event) error {
	b.broadcast(evt)
	return nil
}

func (b *LocalBus) broadcast(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.log.Warn("subscriber buffer full, dropping event", "subscriber", id, "kind", evt.Kind)
		}
	}
}

func (b *LocalBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *LocalBus) Online() bool {
	return true
}
