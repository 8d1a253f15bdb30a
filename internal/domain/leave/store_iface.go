package leave

import "context"

type StoreAPI interface {
	Create(ctx context.Context, l LeaveRequest) (LeaveRequest, error)
	Get(ctx context.Context, leaveID string) (LeaveRequest, error)
	SaveWithHistory(ctx context.Context, l LeaveRequest, record ReviewRecord, expectedVersion int) (LeaveRequest, error)
	ListRequests(ctx context.Context, filter ListFilter, limit, offset int) (RequestListResult, error)
}

// ListFilter scopes a request listing. Empty fields are not applied.
type ListFilter struct {
	OrganizationID    string
	EmployeeID        string
	CurrentReviewerID string
	OpenOnly          bool
}
