package events

import (
	"context"
	"time"

	"staffperf/internal/platform/querier"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	CreatedAt     time.Time
}

type OutboxStoreAPI interface {
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
	PendingCount(ctx context.Context) (int, error)
}

type OutboxStore struct {
	DB querier.Querier
}

func NewOutboxStore(db querier.Querier) *OutboxStore {
	return &OutboxStore{DB: db}
}

// ListPending returns unsent events that are due, oldest first. Failed
// events become due again after a backoff that grows with retry_count.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, aggregate_type, aggregate_id::text, event_type, topic, payload, status, retry_count, created_at
    FROM outbox_events
    WHERE status IN ($1, $2)
      AND (next_retry_at IS NULL OR next_retry_at <= now())
    ORDER BY created_at, id
    LIMIT $3
  `, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OutboxEvent, 0, limit)
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Topic, &e.Payload, &e.Status, &e.RetryCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE outbox_events
    SET status = $2, processed_at = now(), error_message = NULL
    WHERE id = $1
  `, id, OutboxStatusSent)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id, reason string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE outbox_events
    SET status = $2,
        retry_count = retry_count + 1,
        error_message = LEFT($3, 500),
        next_retry_at = now() + (LEAST(retry_count + 1, 10) * INTERVAL '15 seconds')
    WHERE id = $1
  `, id, OutboxStatusFailed, reason)
	return err
}

func (s *OutboxStore) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM outbox_events WHERE status <> $1", OutboxStatusSent).Scan(&count)
	return count, err
}
