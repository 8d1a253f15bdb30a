package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkflowEvent is the outbox payload written alongside every mutation.
type WorkflowEvent struct {
	EventType         string    `json:"event_type"`
	LeaveRequestID    string    `json:"leave_request_id"`
	OrganizationID    string    `json:"organization_id"`
	EmployeeID        string    `json:"employee_id"`
	Status            string    `json:"status"`
	ReviewCount       int       `json:"review_count"`
	CurrentReviewerID string    `json:"current_reviewer_id"`
	ActorID           string    `json:"actor_id"`
	ReviewOrder       int       `json:"review_order,omitempty"`
	ForwardedTo       string    `json:"forwarded_to,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

const leaveColumns = `
    id, organization_id, employee_id, leave_type, start_date, end_date, days,
    reason, rejection_reason, status, review_count,
    COALESCE(original_reviewer_id::text, ''), COALESCE(current_reviewer_id::text, ''),
    version, created_at, updated_at`

func scanLeave(row pgx.Row) (LeaveRequest, error) {
	var l LeaveRequest
	err := row.Scan(
		&l.ID, &l.OrganizationID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate, &l.Days,
		&l.Reason, &l.RejectionReason, &l.Status, &l.ReviewCount,
		&l.OriginalReviewerID, &l.CurrentReviewerID,
		&l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (s *Store) Create(ctx context.Context, l LeaveRequest) (LeaveRequest, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanLeave(tx.QueryRow(ctx, `
    INSERT INTO leave_requests (organization_id, employee_id, leave_type, start_date, end_date, days, reason, status, review_count, original_reviewer_id, current_reviewer_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$9,$9)
    RETURNING `+leaveColumns,
		l.OrganizationID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.Days, l.Reason, StatusPending, nullIfEmpty(l.OriginalReviewerID)))
	if err != nil {
		return LeaveRequest{}, err
	}
	created.ReviewHistory = []ReviewRecord{}

	if err := s.insertOutbox(ctx, tx, created, ReviewRecord{ReviewerID: created.EmployeeID, ReviewDate: created.CreatedAt}, "submitted"); err != nil {
		return LeaveRequest{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return LeaveRequest{}, err
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, leaveID string) (LeaveRequest, error) {
	if _, err := uuid.Parse(leaveID); err != nil {
		return LeaveRequest{}, fmt.Errorf("%w: %s", ErrNotFound, leaveID)
	}
	l, err := scanLeave(s.DB.QueryRow(ctx, "SELECT "+leaveColumns+" FROM leave_requests WHERE id = $1", leaveID))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, fmt.Errorf("%w: %s", ErrNotFound, leaveID)
	}
	if err != nil {
		return LeaveRequest{}, err
	}
	history, err := s.listHistory(ctx, leaveID)
	if err != nil {
		return LeaveRequest{}, err
	}
	l.ReviewHistory = history
	return l, nil
}

func (s *Store) listHistory(ctx context.Context, leaveID string) ([]ReviewRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT reviewer_id, reviewer_name, review_date, status, action, review_order,
           COALESCE(forwarded_to::text, ''), forwarded_to_name, rejection_reason, forwarding_reason
    FROM leave_review_history
    WHERE leave_request_id = $1
    ORDER BY review_order
  `, leaveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []ReviewRecord{}
	for rows.Next() {
		var r ReviewRecord
		if err := rows.Scan(&r.ReviewerID, &r.ReviewerName, &r.ReviewDate, &r.Status, &r.Action, &r.ReviewOrder,
			&r.ForwardedTo, &r.ForwardedToName, &r.RejectionReason, &r.ForwardingReason); err != nil {
			return nil, err
		}
		history = append(history, r)
	}
	return history, rows.Err()
}

// SaveWithHistory persists the leave's workflow fields and appends record in
// one transaction. The row is locked and its version compared against
// expectedVersion first; the record's review_order is recomputed from the
// rows already stored.
func (s *Store) SaveWithHistory(ctx context.Context, l LeaveRequest, record ReviewRecord, expectedVersion int) (LeaveRequest, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var currentVersion int
	err = tx.QueryRow(ctx, "SELECT version FROM leave_requests WHERE id = $1 FOR UPDATE", l.ID).Scan(&currentVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, fmt.Errorf("%w: %s", ErrNotFound, l.ID)
	}
	if err != nil {
		return LeaveRequest{}, err
	}
	if currentVersion != expectedVersion {
		return LeaveRequest{}, fmt.Errorf("%w: expected version %d, found %d", ErrConcurrentModification, expectedVersion, currentVersion)
	}

	var stored int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM leave_review_history WHERE leave_request_id = $1", l.ID).Scan(&stored); err != nil {
		return LeaveRequest{}, err
	}
	record.ReviewOrder = stored + 1

	tag, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, review_count = $2, current_reviewer_id = $3, rejection_reason = $4,
        version = version + 1, updated_at = $5
    WHERE id = $6 AND version = $7
  `, l.Status, l.ReviewCount, nullIfEmpty(l.CurrentReviewerID), l.RejectionReason, l.UpdatedAt, l.ID, expectedVersion)
	if err != nil {
		return LeaveRequest{}, err
	}
	if tag.RowsAffected() == 0 {
		return LeaveRequest{}, fmt.Errorf("%w: version %d is stale", ErrConcurrentModification, expectedVersion)
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO leave_review_history (leave_request_id, review_order, reviewer_id, reviewer_name, review_date, status, action, forwarded_to, forwarded_to_name, rejection_reason, forwarding_reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, l.ID, record.ReviewOrder, record.ReviewerID, record.ReviewerName, record.ReviewDate, record.Status, record.Action,
		nullIfEmpty(record.ForwardedTo), record.ForwardedToName, record.RejectionReason, record.ForwardingReason); err != nil {
		return LeaveRequest{}, err
	}

	if err := s.insertOutbox(ctx, tx, l, record, record.Action); err != nil {
		return LeaveRequest{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return LeaveRequest{}, err
	}
	return s.Get(ctx, l.ID)
}

func (s *Store) insertOutbox(ctx context.Context, tx pgx.Tx, l LeaveRequest, record ReviewRecord, action string) error {
	evt := WorkflowEvent{
		EventType:         "leave.request." + action,
		LeaveRequestID:    l.ID,
		OrganizationID:    l.OrganizationID,
		EmployeeID:        l.EmployeeID,
		Status:            l.Status,
		ReviewCount:       l.ReviewCount,
		CurrentReviewerID: l.CurrentReviewerID,
		ActorID:           record.ReviewerID,
		ReviewOrder:       record.ReviewOrder,
		ForwardedTo:       record.ForwardedTo,
		OccurredAt:        record.ReviewDate,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
    INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, topic, payload)
    VALUES ($1,$2,$3,$4,$5)
  `, OutboxAggregateLeave, l.ID, evt.EventType, s.Topic, payload)
	return err
}

func (s *Store) ListRequests(ctx context.Context, filter ListFilter, limit, offset int) (RequestListResult, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.OrganizationID != "" {
		args = append(args, filter.OrganizationID)
		where += fmt.Sprintf(" AND organization_id = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.CurrentReviewerID != "" {
		args = append(args, filter.CurrentReviewerID)
		where += fmt.Sprintf(" AND current_reviewer_id = $%d", len(args))
	}
	if filter.OpenOnly {
		args = append(args, StatusPending, StatusReviewed, FinalReviewCount)
		where += fmt.Sprintf(" AND status IN ($%d,$%d) AND review_count < $%d", len(args)-2, len(args)-1, len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return RequestListResult{}, err
	}

	query := "SELECT " + leaveColumns + " FROM leave_requests" + where + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return RequestListResult{}, err
	}
	defer rows.Close()

	requests := []LeaveRequest{}
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return RequestListResult{}, err
		}
		requests = append(requests, l)
	}
	if err := rows.Err(); err != nil {
		return RequestListResult{}, err
	}
	return RequestListResult{Requests: requests, Total: total}, nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
