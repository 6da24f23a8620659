package messaging

import (
	"context"
	"log/slog"
	"sync"

	"tribunal/contexts/governance/consensus-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
)

// AllTopics subscribes a handler to every published event.
const AllTopics = "*"

// Bus is the in-process event bus fed by the outbox relay. Delivery to a
// subscriber is best effort: a full subscriber buffer drops the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.EventEnvelope
	buffer      int
	logger      *slog.Logger

	published *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 128
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]chan ports.EventEnvelope),
		buffer:      buffer,
		logger:      logger,
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "bus",
			Name:      "published_total",
			Help:      "Events published on the in-process bus.",
		}, []string{"topic"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tribunal",
			Subsystem: "bus",
			Name:      "dropped_total",
			Help:      "Events dropped because a subscriber was slow.",
		}, []string{"topic"}),
	}
}

// Collectors exposes the bus counters for registration.
func (b *Bus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{b.published, b.dropped}
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	subs := append([]chan ports.EventEnvelope(nil), b.subscribers[topic]...)
	if topic != AllTopics {
		subs = append(subs, b.subscribers[AllTopics]...)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			b.dropped.WithLabelValues(topic).Inc()
			b.logger.Warn("dropping event for slow subscriber",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}
	b.published.WithLabelValues(topic).Inc()
	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe runs handler for every event on topic until ctx is cancelled.
// The returned channel is closed once the consumer goroutine has exited.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) <-chan struct{} {
	ch := make(chan ports.EventEnvelope, b.buffer)
	done := make(chan struct{})

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return done
}

func (b *Bus) removeSubscriber(topic string, target chan ports.EventEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	filtered := make([]chan ports.EventEnvelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == 0 {
		delete(b.subscribers, topic)
		return
	}
	b.subscribers[topic] = filtered
}

var _ ports.EventPublisher = (*Bus)(nil)
