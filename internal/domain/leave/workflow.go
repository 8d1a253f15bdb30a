package leave

import (
	"fmt"
	"strings"
	"time"
)

// ActionParams carries the caller-supplied inputs of a reviewer action.
// ExpectedVersion is the version the caller decided on; zero skips the check.
type ActionParams struct {
	ReviewerID      string
	ReviewerName    string
	Reason          string
	Actor           Actor
	ExpectedVersion int
}

// LegalActions returns the reviewer actions accepted for the request in its
// current state. Terminal and malformed requests accept none.
func LegalActions(l LeaveRequest) []Action {
	if l.IsTerminal() {
		return nil
	}
	switch {
	case l.ReviewCount == 0:
		return []Action{ActionReviewAndForward, ActionFinalApprove, ActionReject}
	case l.ReviewCount == 1:
		return []Action{ActionReview, ActionFinalApprove, ActionReject}
	case l.ReviewCount == 2:
		return []Action{ActionApproveAndForward, ActionFinalApprove, ActionReject}
	case l.ReviewCount > 2 && l.ReviewCount < FinalReviewCount:
		return []Action{ActionApprove, ActionFinalApprove, ActionReject}
	}
	return nil
}

// IsLegal reports whether action is in LegalActions(l).
func IsLegal(l LeaveRequest, action Action) bool {
	for _, a := range LegalActions(l) {
		if a == action {
			return true
		}
	}
	return false
}

// Apply validates action against the request's state and returns the updated
// request together with the record appended to its history. The input is
// never modified; on error the returned request is the zero value.
func Apply(l LeaveRequest, action Action, params ActionParams, now time.Time) (LeaveRequest, ReviewRecord, error) {
	if err := Validate(l, action, params); err != nil {
		return LeaveRequest{}, ReviewRecord{}, err
	}

	next := l.clone()
	record := ReviewRecord{
		ReviewerID:   params.Actor.ID,
		ReviewerName: params.Actor.Name,
		ReviewDate:   now,
	}
	reason := strings.TrimSpace(params.Reason)

	switch action {
	case ActionReviewAndForward:
		next.Status = StatusReviewed
		next.ReviewCount = 1
		forward(&next, &record, params, reason)
		record.Action = HistoryReviewedAndForwarded
		record.Status = StatusReviewed
	case ActionReview:
		next.Status = StatusReviewed
		next.ReviewCount = 2
		record.Action = HistoryReviewed
		record.Status = StatusReviewed
	case ActionApproveAndForward:
		next.Status = StatusReviewed
		next.ReviewCount = 3
		forward(&next, &record, params, reason)
		record.Action = HistoryApprovedAndForwarded
		record.Status = StatusApproved
	case ActionApprove:
		next.ReviewCount++
		next.Status = StatusReviewed
		if next.ReviewCount >= FinalReviewCount {
			next.ReviewCount = FinalReviewCount
			next.Status = StatusApproved
		}
		record.Action = HistoryApproved
		record.Status = StatusApproved
	case ActionFinalApprove:
		next.Status = StatusApproved
		next.ReviewCount = FinalReviewCount
		record.Action = HistoryApproved
		record.Status = StatusApproved
	case ActionReject:
		next.Status = StatusRejected
		next.RejectionReason = reason
		record.Action = HistoryRejected
		record.Status = StatusRejected
		record.RejectionReason = reason
	default:
		return LeaveRequest{}, ReviewRecord{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	next.UpdatedAt = now
	record = appendRecord(&next, record)
	return next, record, nil
}

// Cancel withdraws a non-terminal request on behalf of its requester.
func Cancel(l LeaveRequest, actor Actor, now time.Time) (LeaveRequest, ReviewRecord, error) {
	if l.IsTerminal() {
		return LeaveRequest{}, ReviewRecord{}, fmt.Errorf("%w: status %s", ErrAlreadyFinalized, l.Status)
	}
	if strings.TrimSpace(actor.ID) == "" {
		return LeaveRequest{}, ReviewRecord{}, ErrMissingActor
	}
	if actor.ID != l.EmployeeID {
		return LeaveRequest{}, ReviewRecord{}, fmt.Errorf("%w: only the requester may cancel", ErrForbidden)
	}

	next := l.clone()
	next.Status = StatusCancelled
	next.UpdatedAt = now
	record := appendRecord(&next, ReviewRecord{
		ReviewerID:   actor.ID,
		ReviewerName: actor.Name,
		ReviewDate:   now,
		Status:       StatusCancelled,
		Action:       HistoryCancelled,
	})
	return next, record, nil
}

// Validate reports the first rule action violates in the request's current state.
func Validate(l LeaveRequest, action Action, params ActionParams) error {
	if l.IsTerminal() {
		return fmt.Errorf("%w: status %s, review count %d", ErrAlreadyFinalized, l.Status, l.ReviewCount)
	}
	if !IsLegal(l, action) {
		return fmt.Errorf("%w: %s not allowed at review count %d", ErrInvalidTransition, action, l.ReviewCount)
	}
	if strings.TrimSpace(params.Actor.ID) == "" {
		return ErrMissingActor
	}

	reviewerID := strings.TrimSpace(params.ReviewerID)
	reason := strings.TrimSpace(params.Reason)
	if action.Forwards() {
		if reviewerID == "" {
			return fmt.Errorf("%w: %s needs a target reviewer", ErrMissingReviewer, action)
		}
		if reviewerID == l.CurrentReviewerID {
			return fmt.Errorf("%w: target must differ from the current reviewer", ErrMissingReviewer)
		}
		if reason == "" {
			return fmt.Errorf("%w: %s needs a forwarding reason", ErrMissingReason, action)
		}
		return nil
	}
	if reviewerID != "" {
		return fmt.Errorf("%w: %s does not forward", ErrInvalidTransition, action)
	}
	if action == ActionReject && reason == "" {
		return fmt.Errorf("%w: reject needs a rejection reason", ErrMissingReason)
	}
	return nil
}

func forward(next *LeaveRequest, record *ReviewRecord, params ActionParams, reason string) {
	target := strings.TrimSpace(params.ReviewerID)
	next.CurrentReviewerID = target
	record.ForwardedTo = target
	record.ForwardedToName = params.ReviewerName
	record.ForwardingReason = reason
}

// appendRecord stamps record with its position and appends it. The order is
// always derived from the history length, never from the caller.
func appendRecord(l *LeaveRequest, record ReviewRecord) ReviewRecord {
	record.ReviewOrder = len(l.ReviewHistory) + 1
	l.ReviewHistory = append(l.ReviewHistory, record)
	return record
}
