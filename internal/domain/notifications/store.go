package notifications

import (
	"context"
	"fmt"

	"staffperf/internal/platform/querier"
)

type StoreAPI interface {
	Create(ctx context.Context, organizationID string, n Notification) error
	List(ctx context.Context, organizationID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	Count(ctx context.Context, organizationID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, organizationID, userID, notificationID string) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, organizationID string, n Notification) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (organization_id, user_id, type, title, body, leave_request_id)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, organizationID, n.UserID, n.Type, n.Title, n.Body, nullIfEmpty(n.LeaveRequestID))
	return err
}

func (s *Store) List(ctx context.Context, organizationID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	query := `
    SELECT id, user_id, type, title, body, COALESCE(leave_request_id::text, ''), read_at, created_at
    FROM notifications
    WHERE organization_id = $1 AND user_id = $2`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC LIMIT $3 OFFSET $4"

	rows, err := s.DB.Query(ctx, query, organizationID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.LeaveRequestID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, organizationID, userID string, unreadOnly bool) (int, error) {
	query := "SELECT COUNT(1) FROM notifications WHERE organization_id = $1 AND user_id = $2"
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, organizationID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, organizationID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE organization_id = $1 AND user_id = $2 AND id::text = $3
  `, organizationID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, notificationID)
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
