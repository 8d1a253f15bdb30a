package reports

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"staffperf/internal/domain/leave"
	"staffperf/internal/platform/querier"
)

type StoreAPI interface {
	StatusCounts(ctx context.Context, organizationID string) (map[string]int, error)
	OpenStageCounts(ctx context.Context, organizationID string) (map[int]int, error)
	AwaitingReviewer(ctx context.Context, organizationID, reviewerID string) (int, error)
	OpenByReviewer(ctx context.Context, organizationID string) (map[string]int, error)
	MedianDecisionHours(ctx context.Context, organizationID string) (float64, error)
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) StatusCounts(ctx context.Context, organizationID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM leave_requests
    WHERE organization_id = $1
    GROUP BY status
  `, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func (s *Store) OpenStageCounts(ctx context.Context, organizationID string) (map[int]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT review_count, COUNT(1)
    FROM leave_requests
    WHERE organization_id = $1 AND status IN ($2,$3) AND review_count < $4
    GROUP BY review_count
  `, organizationID, leave.StatusPending, leave.StatusReviewed, leave.FinalReviewCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]int{}
	for rows.Next() {
		var stage, count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		out[stage] = count
	}
	return out, rows.Err()
}

func (s *Store) AwaitingReviewer(ctx context.Context, organizationID, reviewerID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests
    WHERE organization_id = $1 AND current_reviewer_id::text = $2
      AND status IN ($3,$4) AND review_count < $5
  `, organizationID, reviewerID, leave.StatusPending, leave.StatusReviewed, leave.FinalReviewCount).Scan(&total)
	return total, err
}

func (s *Store) OpenByReviewer(ctx context.Context, organizationID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT current_reviewer_id::text, COUNT(1)
    FROM leave_requests
    WHERE organization_id = $1 AND current_reviewer_id IS NOT NULL
      AND status IN ($2,$3) AND review_count < $4
    GROUP BY current_reviewer_id
  `, organizationID, leave.StatusPending, leave.StatusReviewed, leave.FinalReviewCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var reviewerID string
		var count int
		if err := rows.Scan(&reviewerID, &count); err != nil {
			return nil, err
		}
		out[reviewerID] = count
	}
	return out, rows.Err()
}

// MedianDecisionHours is measured from submission to the last history record
// of each approved or rejected request, the one that closed it. Intermediate
// approve_and_forward and approve records are not sampled.
func (s *Store) MedianDecisionHours(ctx context.Context, organizationID string) (float64, error) {
	var hours float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(percentile_cont(0.5) WITHIN GROUP (
      ORDER BY EXTRACT(EPOCH FROM (h.review_date - l.created_at)) / 3600
    ), 0)
    FROM leave_requests l
    JOIN leave_review_history h ON h.leave_request_id = l.id
    WHERE l.organization_id = $1 AND l.status IN ($2,$3)
      AND h.review_order = (
        SELECT MAX(review_order) FROM leave_review_history WHERE leave_request_id = l.id
      )
  `, organizationID, leave.StatusApproved, leave.StatusRejected).Scan(&hours)
	return hours, err
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE 1=1`
	var args []any
	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		query += " AND job_type = $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
