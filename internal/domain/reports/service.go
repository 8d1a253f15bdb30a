package reports

import (
	"context"
	"log/slog"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// Dashboard collects the workflow counters for organizationID. The decision
// time is best effort and reported as zero when it cannot be computed.
func (s *Service) Dashboard(ctx context.Context, organizationID, reviewerID string) (WorkflowDashboard, error) {
	byStatus, err := s.Store.StatusCounts(ctx, organizationID)
	if err != nil {
		return WorkflowDashboard{}, err
	}
	byStage, err := s.Store.OpenStageCounts(ctx, organizationID)
	if err != nil {
		return WorkflowDashboard{}, err
	}
	byReviewer, err := s.Store.OpenByReviewer(ctx, organizationID)
	if err != nil {
		return WorkflowDashboard{}, err
	}
	awaiting, err := s.Store.AwaitingReviewer(ctx, organizationID, reviewerID)
	if err != nil {
		return WorkflowDashboard{}, err
	}
	median, err := s.Store.MedianDecisionHours(ctx, organizationID)
	if err != nil {
		slog.Warn("median decision time failed", "err", err)
		median = 0
	}
	return WorkflowDashboard{
		ByStatus:         byStatus,
		OpenByStage:      byStage,
		OpenByReviewer:   byReviewer,
		AwaitingMe:       awaiting,
		MedianDecisionHr: median,
	}, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.Store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.Store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
