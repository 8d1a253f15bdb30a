package leave

import "strings"

// Action is a reviewer decision on a leave request.
type Action string

const (
	ActionReviewAndForward  Action = "review_and_forward"
	ActionReview            Action = "review"
	ActionApprove           Action = "approve"
	ActionApproveAndForward Action = "approve_and_forward"
	ActionFinalApprove      Action = "final_approve"
	ActionReject            Action = "reject"
)

// Actions lists every reviewer action in the order LegalActions reports them.
var Actions = []Action{
	ActionReviewAndForward,
	ActionReview,
	ActionApproveAndForward,
	ActionApprove,
	ActionFinalApprove,
	ActionReject,
}

func ParseAction(raw string) (Action, bool) {
	candidate := Action(strings.ToLower(strings.TrimSpace(raw)))
	for _, a := range Actions {
		if a == candidate {
			return a, true
		}
	}
	return "", false
}

func (a Action) String() string {
	return string(a)
}

// Forwards reports whether the action routes the request to a new reviewer.
func (a Action) Forwards() bool {
	return a == ActionReviewAndForward || a == ActionApproveAndForward
}

func actionStrings(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

// ActionNames returns the wire names of all reviewer actions.
func ActionNames() []string {
	return actionStrings(Actions)
}
