package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/core"
	"staffperf/internal/requestctx"
)

// ReviewerDirectory resolves reviewer identities for the workflow.
type ReviewerDirectory interface {
	Lookup(ctx context.Context, reviewerID string) (core.Reviewer, error)
	DefaultReviewer(ctx context.Context, employeeID string) (core.Reviewer, error)
}

type Service struct {
	Store     StoreAPI
	Directory ReviewerDirectory
	Now       func() time.Time
}

func NewService(store StoreAPI, directory ReviewerDirectory) *Service {
	return &Service{Store: store, Directory: directory, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Submit creates a pending request routed to the given reviewer, or to the
// employee's manager when none is given.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (LeaveRequest, error) {
	leaveType := strings.ToLower(strings.TrimSpace(in.LeaveType))
	if !ValidLeaveType(leaveType) {
		return LeaveRequest{}, fmt.Errorf("%w: %q", ErrInvalidLeaveType, in.LeaveType)
	}
	if err := ValidateDateRange(in.StartDate, in.EndDate, s.now()); err != nil {
		return LeaveRequest{}, err
	}
	days, err := CalculateDays(in.StartDate, in.EndDate)
	if err != nil {
		return LeaveRequest{}, err
	}

	reviewer, err := s.resolveInitialReviewer(ctx, in)
	if err != nil {
		return LeaveRequest{}, err
	}

	created, err := s.Store.Create(ctx, LeaveRequest{
		EmployeeID:         in.EmployeeID,
		OrganizationID:     in.OrganizationID,
		LeaveType:          leaveType,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		Days:               days,
		Reason:             strings.TrimSpace(in.Reason),
		Status:             StatusPending,
		OriginalReviewerID: reviewer.ID,
		CurrentReviewerID:  reviewer.ID,
	})
	if err != nil {
		return LeaveRequest{}, err
	}
	requestctx.Logger(ctx).Info("leave request submitted", "leaveId", created.ID, "employeeId", created.EmployeeID, "reviewerId", reviewer.ID)
	return created, nil
}

func (s *Service) resolveInitialReviewer(ctx context.Context, in SubmitInput) (core.Reviewer, error) {
	var (
		reviewer core.Reviewer
		err      error
	)
	if strings.TrimSpace(in.ReviewerID) == "" {
		reviewer, err = s.Directory.DefaultReviewer(ctx, in.EmployeeID)
	} else {
		reviewer, err = s.Directory.Lookup(ctx, strings.TrimSpace(in.ReviewerID))
	}
	if errors.Is(err, core.ErrReviewerNotFound) {
		return core.Reviewer{}, fmt.Errorf("%w: %v", ErrMissingReviewer, err)
	}
	if err != nil {
		return core.Reviewer{}, err
	}
	if reviewer.ID == in.EmployeeID {
		return core.Reviewer{}, fmt.Errorf("%w: employees cannot review their own request", ErrMissingReviewer)
	}
	if in.OrganizationID != "" && reviewer.OrganizationID != in.OrganizationID {
		return core.Reviewer{}, fmt.Errorf("%w: reviewer belongs to another organization", ErrMissingReviewer)
	}
	return reviewer, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, organizationID, leaveID string) (LeaveRequest, error) {
	l, err := s.Store.Get(ctx, leaveID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if organizationID != "" && l.OrganizationID != organizationID {
		return LeaveRequest{}, fmt.Errorf("%w: %s", ErrNotFound, leaveID)
	}
	if !canView(l, actor) {
		return LeaveRequest{}, fmt.Errorf("%w: not a participant", ErrForbidden)
	}
	return l, nil
}

// LegalActionsFor returns the actions the actor may take on the request now.
// Actors who may not act on it get an empty list.
func (s *Service) LegalActionsFor(ctx context.Context, actor Actor, organizationID, leaveID string) (LeaveRequest, []Action, error) {
	l, err := s.Get(ctx, actor, organizationID, leaveID)
	if err != nil {
		return LeaveRequest{}, nil, err
	}
	if authorize(l, actor) != nil {
		return l, []Action{}, nil
	}
	actions := LegalActions(l)
	if actions == nil {
		actions = []Action{}
	}
	return l, actions, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) (RequestListResult, error) {
	return s.Store.ListRequests(ctx, filter, limit, offset)
}

// ApplyAction loads the request, validates and applies the action, and
// persists the result against the version it was loaded at. A decision made
// on an older version than the stored one is rejected before validation.
func (s *Service) ApplyAction(ctx context.Context, leaveID string, action Action, params ActionParams) (LeaveRequest, error) {
	l, err := s.load(ctx, leaveID, params.Actor)
	if err != nil {
		return LeaveRequest{}, err
	}
	if params.ExpectedVersion > 0 && params.ExpectedVersion != l.Version {
		return LeaveRequest{}, fmt.Errorf("%w: decided on version %d, current is %d", ErrConcurrentModification, params.ExpectedVersion, l.Version)
	}
	if err := Validate(l, action, params); err != nil {
		return LeaveRequest{}, err
	}
	if err := authorize(l, params.Actor); err != nil {
		return LeaveRequest{}, err
	}

	if action.Forwards() {
		target, err := s.Directory.Lookup(ctx, strings.TrimSpace(params.ReviewerID))
		if errors.Is(err, core.ErrReviewerNotFound) {
			return LeaveRequest{}, fmt.Errorf("%w: %v", ErrMissingReviewer, err)
		}
		if err != nil {
			return LeaveRequest{}, err
		}
		if target.OrganizationID != l.OrganizationID {
			return LeaveRequest{}, fmt.Errorf("%w: reviewer belongs to another organization", ErrMissingReviewer)
		}
		if target.ID == l.EmployeeID {
			return LeaveRequest{}, fmt.Errorf("%w: employees cannot review their own request", ErrMissingReviewer)
		}
		params.ReviewerName = target.Name
	}

	next, record, err := Apply(l, action, params, s.now())
	if err != nil {
		return LeaveRequest{}, err
	}
	saved, err := s.Store.SaveWithHistory(ctx, next, record, l.Version)
	if err != nil {
		return LeaveRequest{}, err
	}
	requestctx.Logger(ctx).Info("leave action applied",
		"leaveId", saved.ID,
		"action", action,
		"actorId", params.Actor.ID,
		"reviewCount", saved.ReviewCount,
		"status", saved.Status,
	)
	return saved, nil
}

func (s *Service) Cancel(ctx context.Context, leaveID string, actor Actor) (LeaveRequest, error) {
	l, err := s.load(ctx, leaveID, actor)
	if err != nil {
		return LeaveRequest{}, err
	}
	next, record, err := Cancel(l, actor, s.now())
	if err != nil {
		return LeaveRequest{}, err
	}
	saved, err := s.Store.SaveWithHistory(ctx, next, record, l.Version)
	if err != nil {
		return LeaveRequest{}, err
	}
	requestctx.Logger(ctx).Info("leave request cancelled", "leaveId", saved.ID, "actorId", actor.ID)
	return saved, nil
}

// load fetches the request, hiding requests of other organizations.
func (s *Service) load(ctx context.Context, leaveID string, actor Actor) (LeaveRequest, error) {
	l, err := s.Store.Get(ctx, leaveID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if actor.OrganizationID != "" && l.OrganizationID != actor.OrganizationID {
		return LeaveRequest{}, fmt.Errorf("%w: %s", ErrNotFound, leaveID)
	}
	return l, nil
}

// authorize allows the current reviewer and HR to act on a request.
func authorize(l LeaveRequest, actor Actor) error {
	if actor.ID == l.EmployeeID {
		return fmt.Errorf("%w: requesters cannot review their own request", ErrForbidden)
	}
	if actor.ID == l.CurrentReviewerID || actor.Role == auth.RoleHR {
		return nil
	}
	return fmt.Errorf("%w: %s is not the current reviewer", ErrForbidden, actor.ID)
}

func canView(l LeaveRequest, actor Actor) bool {
	if actor.Role == auth.RoleHR || actor.ID == l.EmployeeID || actor.ID == l.CurrentReviewerID || actor.ID == l.OriginalReviewerID {
		return true
	}
	for _, r := range l.ReviewHistory {
		if r.ReviewerID == actor.ID || r.ForwardedTo == actor.ID {
			return true
		}
	}
	return false
}
