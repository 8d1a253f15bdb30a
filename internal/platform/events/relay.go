package events

import (
	"context"
	"log/slog"
)

const DefaultBatchSize = 50

type RelayResult struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// Relay moves pending outbox rows to the publisher.
type Relay struct {
	Store     OutboxStoreAPI
	Publisher Publisher
	BatchSize int
}

func NewRelay(store OutboxStoreAPI, publisher Publisher, batchSize int) *Relay {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Relay{Store: store, Publisher: publisher, BatchSize: batchSize}
}

// ProcessPending publishes one batch. An aggregate stops at its first
// failure so later events for the same request are not published ahead of it.
func (r *Relay) ProcessPending(ctx context.Context) (RelayResult, error) {
	var result RelayResult
	batch, err := r.Store.ListPending(ctx, r.BatchSize)
	if err != nil {
		return result, err
	}

	blocked := map[string]bool{}
	for _, event := range batch {
		if blocked[event.AggregateID] {
			continue
		}
		if err := r.Publisher.Publish(ctx, event); err != nil {
			slog.Warn("publish outbox event failed", "outboxId", event.ID, "eventType", event.EventType, "topic", event.Topic, "err", err)
			blocked[event.AggregateID] = true
			result.Failed++
			if markErr := r.Store.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				slog.Warn("mark outbox failed failed", "outboxId", event.ID, "err", markErr)
			}
			continue
		}
		if err := r.Store.MarkSent(ctx, event.ID); err != nil {
			slog.Warn("mark outbox sent failed", "outboxId", event.ID, "err", err)
			blocked[event.AggregateID] = true
			continue
		}
		result.Published++
	}
	if result.Published > 0 || result.Failed > 0 {
		slog.Info("outbox batch relayed", "published", result.Published, "failed", result.Failed)
	}
	return result, nil
}
