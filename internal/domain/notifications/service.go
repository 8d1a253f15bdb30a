package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"staffperf/internal/domain/leave"
)

type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, organizationID string, n Notification) error {
	return s.store.Create(ctx, organizationID, n)
}

func (s *Service) List(ctx context.Context, organizationID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.List(ctx, organizationID, userID, unreadOnly, limit, offset)
}

func (s *Service) Count(ctx context.Context, organizationID, userID string, unreadOnly bool) (int, error) {
	return s.store.Count(ctx, organizationID, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, organizationID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, organizationID, userID, notificationID)
}

// LeaveChanged informs the participants of a request after it was submitted
// or changed. Delivery failures are logged and never fail the caller.
func (s *Service) LeaveChanged(ctx context.Context, l leave.LeaveRequest, actorID string) {
	if s == nil {
		return
	}
	for _, n := range Messages(l, actorID) {
		if err := s.store.Create(ctx, l.OrganizationID, n); err != nil {
			slog.Warn("leave notification failed", "leaveId", l.ID, "userId", n.UserID, "type", n.Type, "err", err)
		}
	}
}

// Messages builds the notifications for a request's current state. The
// actor is never notified of their own action.
func Messages(l leave.LeaveRequest, actorID string) []Notification {
	var out []Notification
	add := func(userID, ntype, title, body string) {
		if userID == "" || userID == actorID {
			return
		}
		out = append(out, Notification{UserID: userID, Type: ntype, Title: title, Body: body, LeaveRequestID: l.ID})
	}

	period := fmt.Sprintf("%s to %s", l.StartDate.Format("2006-01-02"), l.EndDate.Format("2006-01-02"))
	switch l.Status {
	case leave.StatusPending:
		add(l.CurrentReviewerID, TypeLeaveAssigned, "Leave request awaiting review", "A "+l.LeaveType+" leave request for "+period+" is awaiting your review.")
	case leave.StatusReviewed:
		add(l.CurrentReviewerID, TypeLeaveAssigned, "Leave request awaiting review", "A "+l.LeaveType+" leave request for "+period+" is awaiting your review.")
		add(l.EmployeeID, TypeLeaveReviewed, "Leave request reviewed", fmt.Sprintf("Your leave request for %s passed review stage %d.", period, l.ReviewCount))
	case leave.StatusApproved:
		add(l.EmployeeID, TypeLeaveApproved, "Leave request approved", "Your leave request for "+period+" was approved.")
	case leave.StatusRejected:
		add(l.EmployeeID, TypeLeaveRejected, "Leave request rejected", "Your leave request for "+period+" was rejected: "+l.RejectionReason)
	case leave.StatusCancelled:
		add(l.CurrentReviewerID, TypeLeaveCancelled, "Leave request cancelled", "A leave request for "+period+" assigned to you was cancelled.")
	}
	return out
}
