package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewLocalBus(testLogger())

	first, cancelFirst := bus.Subscribe(8)
	defer cancelFirst()
	second, cancelSecond := bus.Subscribe(8)
	defer cancelSecond()

	evt := NewEvent(KindAlertRaised, map[string]string{"id": "alert_1"})
	if err := bus.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for i, ch := range []<-chan Event{first, second} {
		select {
		case got := <-ch:
			if got.Kind != KindAlertRaised {
				t.Errorf("subscriber %d got kind %s", i, got.Kind)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestLocalBus_SlowSubscriberDropsNotBlocks(t *testing.T) {
	bus := NewLocalBus(testLogger())

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	ctx := context.Background()
	// Second publish overflows the buffer; it must not block.
	if err := bus.Publish(ctx, NewEvent(KindSessionUpdate, nil)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.Publish(ctx, NewEvent(KindSessionUpdate, nil)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(ch) != 1 {
		t.Errorf("expected 1 buffered event, got %d", len(ch))
	}
}

func TestLocalBus_CancelStopsDelivery(t *testing.T) {
	bus := NewLocalBus(testLogger())

	ch, cancel := bus.Subscribe(8)
	cancel()

	if err := bus.Publish(context.Background(), NewEvent(KindSessionUpdate, nil)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
}

func TestLocalBus_CancelTwiceIsSafe(t *testing.T) {
	bus := NewLocalBus(testLogger())
	_, cancel := bus.Subscribe(1)
	cancel()
	cancel()
}

func TestLocalBus_Online(t *testing.T) {
	if !NewLocalBus(testLogger()).Online() {
		t.Error("local bus is always online")
	}
}
