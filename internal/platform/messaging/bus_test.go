package messaging

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"tribunal/contexts/governance/consensus-engine/ports"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusDeliversToTopicAndWildcard(t *testing.T) {
	bus := NewBus(8, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())

	topicEvents := make(chan ports.EventEnvelope, 1)
	allEvents := make(chan ports.EventEnvelope, 2)
	topicDone := bus.Subscribe(ctx, "ballot.cast", "test", func(_ context.Context, event ports.EventEnvelope) error {
		topicEvents <- event
		return nil
	})
	allDone := bus.Subscribe(ctx, AllTopics, "test", func(_ context.Context, event ports.EventEnvelope) error {
		allEvents <- event
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), "ballot.cast", ports.EventEnvelope{EventID: "e1", EventType: "ballot.cast"}))
	require.NoError(t, bus.Publish(context.Background(), "subject.opened", ports.EventEnvelope{EventID: "e2", EventType: "subject.opened"}))

	select {
	case event := <-topicEvents:
		require.Equal(t, "e1", event.EventID)
	case <-time.After(time.Second):
		t.Fatal("topic subscriber did not receive event")
	}
	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case event := <-allEvents:
			seen[event.EventID] = true
		case <-time.After(time.Second):
			t.Fatalf("wildcard subscriber saw %v", seen)
		}
	}

	cancel()
	<-topicDone
	<-allDone
	require.Equal(t, float64(1), testutil.ToFloat64(bus.published.WithLabelValues("ballot.cast")))
}

func TestBusUnsubscribesOnCancel(t *testing.T) {
	bus := NewBus(1, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	done := bus.Subscribe(ctx, "subject.reset", "test", func(context.Context, ports.EventEnvelope) error { return nil })
	cancel()
	<-done

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	require.Empty(t, bus.subscribers["subject.reset"])
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(0, nil)
	require.NoError(t, bus.Publish(context.Background(), "role.changed", ports.EventEnvelope{EventID: "e3"}))
	require.Len(t, bus.Collectors(), 2)
}
