package leave

import "errors"

var (
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrMissingReason          = errors.New("reason required")
	ErrMissingReviewer        = errors.New("reviewer required")
	ErrMissingActor           = errors.New("actor required")
	ErrAlreadyFinalized       = errors.New("leave request already finalized")
	ErrConcurrentModification = errors.New("leave request was modified concurrently")
	ErrNotFound               = errors.New("leave request not found")
	ErrInvalidDateRange       = errors.New("invalid date range")
	ErrInvalidLeaveType       = errors.New("invalid leave type")
	ErrForbidden              = errors.New("forbidden")
)

// Kind returns the stable name of the workflow error wrapped by err, or
// an empty string when err is not a workflow error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrMissingReason):
		return "MissingReason"
	case errors.Is(err, ErrMissingReviewer):
		return "MissingReviewer"
	case errors.Is(err, ErrMissingActor):
		return "MissingActor"
	case errors.Is(err, ErrAlreadyFinalized):
		return "AlreadyFinalized"
	case errors.Is(err, ErrConcurrentModification):
		return "ConcurrentModification"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidDateRange):
		return "InvalidDateRange"
	case errors.Is(err, ErrInvalidLeaveType):
		return "InvalidLeaveType"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	}
	return ""
}
