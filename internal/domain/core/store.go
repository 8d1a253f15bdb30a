package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"staffperf/internal/domain/auth"
	"staffperf/internal/platform/querier"
)

type StoreAPI interface {
	ListEligible(ctx context.Context, organizationID, excludeID string) ([]Reviewer, error)
	Lookup(ctx context.Context, reviewerID string) (Reviewer, error)
	ManagerOf(ctx context.Context, employeeID string) (Reviewer, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListEligible(ctx context.Context, organizationID, excludeID string) ([]Reviewer, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, role, organization_id
    FROM users
    WHERE organization_id = $1 AND status = $2 AND role = ANY($3) AND id::text <> $4
    ORDER BY name
  `, organizationID, auth.UserStatusActive, auth.ReviewerRoles, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Reviewer{}
	for rows.Next() {
		var r Reviewer
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Role, &r.OrganizationID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Lookup(ctx context.Context, reviewerID string) (Reviewer, error) {
	if _, err := uuid.Parse(reviewerID); err != nil {
		return Reviewer{}, fmt.Errorf("%w: %s", ErrReviewerNotFound, reviewerID)
	}
	var r Reviewer
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, role, organization_id
    FROM users
    WHERE id = $1 AND status = $2 AND role = ANY($3)
  `, reviewerID, auth.UserStatusActive, auth.ReviewerRoles).Scan(&r.ID, &r.Name, &r.Email, &r.Role, &r.OrganizationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reviewer{}, fmt.Errorf("%w: %s", ErrReviewerNotFound, reviewerID)
	}
	return r, err
}

// ManagerOf returns the active reviewer recorded as the employee's manager.
func (s *Store) ManagerOf(ctx context.Context, employeeID string) (Reviewer, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return Reviewer{}, fmt.Errorf("%w: no manager for %s", ErrReviewerNotFound, employeeID)
	}
	var r Reviewer
	err := s.DB.QueryRow(ctx, `
    SELECT m.id, m.name, m.email, m.role, m.organization_id
    FROM users e
    JOIN users m ON e.manager_id = m.id
    WHERE e.id = $1 AND m.status = $2 AND m.role = ANY($3)
  `, employeeID, auth.UserStatusActive, auth.ReviewerRoles).Scan(&r.ID, &r.Name, &r.Email, &r.Role, &r.OrganizationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reviewer{}, fmt.Errorf("%w: no manager for %s", ErrReviewerNotFound, employeeID)
	}
	return r, err
}
