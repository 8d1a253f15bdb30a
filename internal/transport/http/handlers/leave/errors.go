package leavehandler

import (
	"log/slog"
	"net/http"

	"staffperf/internal/domain/leave"
	"staffperf/internal/transport/http/api"
)

type errorMapping struct {
	status int
	code   string
}

var workflowErrors = map[string]errorMapping{
	"InvalidTransition":      {http.StatusConflict, "invalid_transition"},
	"MissingReason":          {http.StatusBadRequest, "missing_reason"},
	"MissingReviewer":        {http.StatusBadRequest, "missing_reviewer"},
	"MissingActor":           {http.StatusBadRequest, "missing_actor"},
	"AlreadyFinalized":       {http.StatusConflict, "already_finalized"},
	"ConcurrentModification": {http.StatusConflict, "concurrent_modification"},
	"NotFound":               {http.StatusNotFound, "not_found"},
	"InvalidDateRange":       {http.StatusBadRequest, "invalid_dates"},
	"InvalidLeaveType":       {http.StatusBadRequest, "invalid_leave_type"},
	"Forbidden":              {http.StatusForbidden, "forbidden"},
}

// writeWorkflowError maps a workflow error kind to its status and code.
// Anything else is logged and reported as a 500 with fallbackCode.
func writeWorkflowError(w http.ResponseWriter, err error, fallbackCode, requestID string) {
	if m, ok := workflowErrors[leave.Kind(err)]; ok {
		api.Fail(w, m.status, m.code, err.Error(), requestID)
		return
	}
	slog.Error("leave workflow failed", "err", err, "requestId", requestID)
	api.Fail(w, http.StatusInternalServerError, fallbackCode, "leave request operation failed", requestID)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := leave.Kind(err); kind != "" {
		return kind
	}
	return "error"
}
