package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/ports"
)

// OutboxRelay publishes queued ledger outbox entries to the event bus.
type OutboxRelay struct {
	Ledger    ports.Ledger
	Publisher ports.EventPublisher
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox entries in queue order
// and removes each entry only after the publish succeeded. It stops on the
// first failure so the next cycle retries from that entry.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Ledger.Scan(ctx, ports.KeyOutbox)
	if err != nil {
		logger.Error("consensus outbox scan failed",
			"event", "consensus_outbox_scan_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		logger.Debug("consensus outbox relay found no pending entries",
			"event", "consensus_outbox_relay_noop",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return 0, nil
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}

	published := 0
	for _, entry := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(entry.Value, &event); err != nil {
			logger.Error("consensus outbox decode failed",
				"event", "consensus_outbox_decode_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_seq", entry.Key.ID,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Publisher.Publish(ctx, event.EventType, event); err != nil {
			logger.Error("consensus outbox publish failed",
				"event", "consensus_outbox_publish_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_seq", entry.Key.ID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		key := entry.Key
		if err := r.Ledger.Atomic(ctx, func(storage ports.Storage) error {
			return storage.Remove(ctx, key)
		}); err != nil {
			logger.Error("consensus outbox remove failed",
				"event", "consensus_outbox_remove_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_seq", entry.Key.ID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("consensus outbox relay cycle completed",
		"event", "consensus_outbox_relay_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}
