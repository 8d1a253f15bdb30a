package leave

import "staffperf/internal/platform/querier"

const (
	OutboxAggregateLeave = "leave_request"
	OutboxTopicWorkflow  = "staff.leave.workflow.v1"
)

type Store struct {
	DB    querier.Querier
	Topic string
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db, Topic: OutboxTopicWorkflow}
}
