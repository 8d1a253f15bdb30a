package leave

import "time"

const (
	StatusPending   = "pending"
	StatusReviewed  = "reviewed"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	TypeAnnual    = "annual"
	TypeSick      = "sick"
	TypeMaternity = "maternity"
	TypePaternity = "paternity"
	TypeEmergency = "emergency"
	TypeUnpaid    = "unpaid"
)

// LeaveTypes lists the accepted leave_type values in display order.
var LeaveTypes = []string{TypeAnnual, TypeSick, TypeMaternity, TypePaternity, TypeEmergency, TypeUnpaid}

func ValidLeaveType(value string) bool {
	for _, t := range LeaveTypes {
		if t == value {
			return true
		}
	}
	return false
}

// FinalReviewCount is the review_count of a fully approved request.
const FinalReviewCount = 5

type LeaveRequest struct {
	ID                 string         `json:"id"`
	EmployeeID         string         `json:"employeeId"`
	OrganizationID     string         `json:"organizationId"`
	LeaveType          string         `json:"leaveType"`
	StartDate          time.Time      `json:"startDate"`
	EndDate            time.Time      `json:"endDate"`
	Days               int            `json:"days"`
	Reason             string         `json:"reason,omitempty"`
	RejectionReason    string         `json:"rejectionReason,omitempty"`
	Status             string         `json:"status"`
	ReviewCount        int            `json:"reviewCount"`
	OriginalReviewerID string         `json:"originalReviewerId"`
	CurrentReviewerID  string         `json:"currentReviewerId"`
	ReviewHistory      []ReviewRecord `json:"reviewHistory"`
	Version            int            `json:"version"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// ReviewRecord is one entry of a request's audit trail. Records are never
// modified after they are appended.
type ReviewRecord struct {
	ReviewerID       string    `json:"reviewerId"`
	ReviewerName     string    `json:"reviewerName"`
	ReviewDate       time.Time `json:"reviewDate"`
	Status           string    `json:"status"`
	Action           string    `json:"action"`
	ReviewOrder      int       `json:"reviewOrder"`
	ForwardedTo      string    `json:"forwardedTo,omitempty"`
	ForwardedToName  string    `json:"forwardedToName,omitempty"`
	RejectionReason  string    `json:"rejectionReason,omitempty"`
	ForwardingReason string    `json:"forwardingReason,omitempty"`
}

const (
	HistoryReviewed             = "reviewed"
	HistoryReviewedAndForwarded = "reviewed_and_forwarded"
	HistoryApprovedAndForwarded = "approved_and_forwarded"
	HistoryApproved             = "approved"
	HistoryRejected             = "rejected"
	HistoryCancelled            = "cancelled"
)

// IsTerminal reports whether no further action may be applied.
func (l LeaveRequest) IsTerminal() bool {
	if l.ReviewCount >= FinalReviewCount {
		return true
	}
	switch l.Status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (l LeaveRequest) clone() LeaveRequest {
	out := l
	out.ReviewHistory = make([]ReviewRecord, len(l.ReviewHistory), len(l.ReviewHistory)+1)
	copy(out.ReviewHistory, l.ReviewHistory)
	return out
}

// Actor identifies the caller performing an action. An empty
// OrganizationID skips the tenancy check.
type Actor struct {
	ID             string
	Name           string
	Role           string
	OrganizationID string
}

type RequestListResult struct {
	Requests []LeaveRequest
	Total    int
}

type SubmitInput struct {
	EmployeeID     string
	OrganizationID string
	LeaveType      string
	StartDate      time.Time
	EndDate        time.Time
	Reason         string
	ReviewerID     string
}
