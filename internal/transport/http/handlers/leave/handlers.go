package leavehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staffperf/internal/domain/audit"
	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/leave"
	"staffperf/internal/platform/metrics"
	"staffperf/internal/transport/http/api"
	"staffperf/internal/transport/http/middleware"
	"staffperf/internal/transport/http/shared"
)

const submitEndpoint = "leave.request.submit"

type IdempotencyStore interface {
	Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

// Notifier tells participants about a request's new state.
type Notifier interface {
	LeaveChanged(ctx context.Context, l leave.LeaveRequest, actorID string)
}

type Handler struct {
	Service     *leave.Service
	Perms       middleware.PermissionStore
	Audit       audit.Recorder
	Notify      Notifier
	Idempotency IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc audit.Recorder, notify Notifier, idem IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Notify: notify, Idempotency: idem, Metrics: collector}
}

func (h *Handler) notify(ctx context.Context, l leave.LeaveRequest, actorID string) {
	if h.Notify != nil {
		h.Notify.LeaveChanged(ctx, l, actorID)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave/requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/", h.handleSubmitRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{requestID}/actions", h.handleLegalActions)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/{requestID}/actions", h.handleApplyAction)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/{requestID}/cancel", h.handleCancelRequest)
	})
}

type submitPayload struct {
	LeaveType  string `json:"leaveType" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
	Reason     string `json:"reason" validate:"max=2000"`
	ReviewerID string `json:"reviewerId" validate:"omitempty,uuid"`
}

type actionPayload struct {
	Action     string `json:"action" validate:"required"`
	ReviewerID string `json:"reviewerId" validate:"omitempty,uuid"`
	Reason     string `json:"reason" validate:"max=2000"`
	Version    *int   `json:"version" validate:"omitempty,min=1"`
}

type cancelPayload struct {
	Reason string `json:"reason" validate:"max=2000"`
}

type legalActionsResponse struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	ReviewCount  int      `json:"reviewCount"`
	Version      int      `json:"version"`
	LegalActions []string `json:"legalActions"`
}

func actorFrom(user auth.UserContext) leave.Actor {
	return leave.Actor{ID: user.UserID, Name: user.Name, Role: user.RoleName, OrganizationID: user.OrganizationID}
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload submitPayload
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.Struct(payload)
	validator.Enum("leaveType", payload.LeaveType, leave.LeaveTypes, "must be one of: "+strings.Join(leave.LeaveTypes, ", "))
	startDate, _ := validator.Date("startDate", payload.StartDate)
	endDate, _ := validator.Date("endDate", payload.EndDate)
	validator.DateOrder("startDate", startDate, "endDate", endDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(middleware.IdempotencyKeyHeader))
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, submitEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Created(w, stored, middleware.GetRequestID(r.Context()))
			return
		}
	}

	created, err := h.Service.Submit(r.Context(), leave.SubmitInput{
		EmployeeID:     user.UserID,
		OrganizationID: user.OrganizationID,
		LeaveType:      payload.LeaveType,
		StartDate:      startDate,
		EndDate:        endDate,
		Reason:         payload.Reason,
		ReviewerID:     payload.ReviewerID,
	})
	h.Metrics.RecordAction("submit", outcomeOf(err))
	if err != nil {
		writeWorkflowError(w, err, "leave_request_failed", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.OrganizationID, user.UserID, "leave.request.submit", "leave_request", created.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, created); err != nil {
		slog.Warn("audit leave.request.submit failed", "err", err)
	}
	h.notify(r.Context(), created, user.UserID)

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(created)
		if err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, submitEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter := leave.ListFilter{OrganizationID: user.OrganizationID}
	switch scope := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope"))); scope {
	case "", "mine":
		filter.EmployeeID = user.UserID
	case "assigned":
		filter.CurrentReviewerID = user.UserID
		filter.OpenOnly = true
	case "all":
		if user.RoleName != auth.RoleHR {
			api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", middleware.GetRequestID(r.Context()))
			return
		}
	default:
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "scope", Reason: "must be one of: mine, assigned, all"}})
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_requests_failed", "failed to list requests", middleware.GetRequestID(r.Context()))
		return
	}
	shared.WriteTotal(w, result.Total)
	api.Success(w, result.Requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Get(r.Context(), actorFrom(user), user.OrganizationID, chi.URLParam(r, "requestID"))
	if err != nil {
		writeWorkflowError(w, err, "leave_request_failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLegalActions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, actions, err := h.Service.LegalActionsFor(r.Context(), actorFrom(user), user.OrganizationID, chi.URLParam(r, "requestID"))
	if err != nil {
		writeWorkflowError(w, err, "leave_request_failed", middleware.GetRequestID(r.Context()))
		return
	}
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.String())
	}
	api.Success(w, legalActionsResponse{
		ID:           req.ID,
		Status:       req.Status,
		ReviewCount:  req.ReviewCount,
		Version:      req.Version,
		LegalActions: names,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApplyAction(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload actionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	validator.Enum("action", payload.Action, leave.ActionNames(), "must be one of: "+strings.Join(leave.ActionNames(), ", "))
	expectedVersion := decidedVersion(r, payload, validator)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	action, _ := leave.ParseAction(payload.Action)

	requestID := chi.URLParam(r, "requestID")
	updated, err := h.Service.ApplyAction(r.Context(), requestID, action, leave.ActionParams{
		ReviewerID:      payload.ReviewerID,
		Reason:          payload.Reason,
		Actor:           actorFrom(user),
		ExpectedVersion: expectedVersion,
	})
	h.Metrics.RecordAction(action.String(), outcomeOf(err))
	if err != nil {
		writeWorkflowError(w, err, "leave_action_failed", middleware.GetRequestID(r.Context()))
		return
	}

	auditAction := "leave.request." + action.String()
	if err := h.Audit.Record(r.Context(), user.OrganizationID, user.UserID, auditAction, "leave_request", updated.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, auditView(updated)); err != nil {
		slog.Warn("audit "+auditAction+" failed", "err", err)
	}
	h.notify(r.Context(), updated, user.UserID)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload cancelPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	requestID := chi.URLParam(r, "requestID")
	updated, err := h.Service.Cancel(r.Context(), requestID, actorFrom(user))
	h.Metrics.RecordAction("cancel", outcomeOf(err))
	if err != nil {
		writeWorkflowError(w, err, "leave_cancel_failed", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.OrganizationID, user.UserID, "leave.request.cancel", "leave_request", updated.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{
		"status": updated.Status,
		"reason": payload.Reason,
	}); err != nil {
		slog.Warn("audit leave.request.cancel failed", "err", err)
	}
	h.notify(r.Context(), updated, user.UserID)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

// decidedVersion returns the request version the caller acted on, taken from
// the body or an If-Match header. Zero means the caller did not send one.
func decidedVersion(r *http.Request, payload actionPayload, validator *shared.Validator) int {
	if payload.Version != nil {
		return *payload.Version
	}
	return validator.Version("If-Match", r.Header.Get("If-Match"))
}

// auditView is the workflow state recorded with an action, including the
// history record the action appended.
func auditView(l leave.LeaveRequest) map[string]any {
	view := map[string]any{
		"status":            l.Status,
		"reviewCount":       l.ReviewCount,
		"currentReviewerId": l.CurrentReviewerID,
		"rejectionReason":   l.RejectionReason,
		"version":           l.Version,
	}
	if n := len(l.ReviewHistory); n > 0 {
		view["record"] = l.ReviewHistory[n-1]
	}
	return view
}
