package notifications

const (
	TypeLeaveAssigned  = "leave_assigned"
	TypeLeaveReviewed  = "leave_reviewed"
	TypeLeaveApproved  = "leave_approved"
	TypeLeaveRejected  = "leave_rejected"
	TypeLeaveCancelled = "leave_cancelled"
)
