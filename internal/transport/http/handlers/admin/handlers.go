package adminhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffperf/internal/domain/auth"
	"staffperf/internal/platform/events"
	"staffperf/internal/platform/jobs"
	"staffperf/internal/transport/http/api"
	"staffperf/internal/transport/http/middleware"
)

type JobRunner interface {
	RelayNow(ctx context.Context) (events.RelayResult, error)
	LastRuns() map[string]jobs.RunStatus
}

type Handler struct {
	Jobs  JobRunner
	Perms middleware.PermissionStore
}

func NewHandler(runner JobRunner, perms middleware.PermissionStore) *Handler {
	return &Handler{Jobs: runner, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Get("/jobs", h.handleListJobs)
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Post("/outbox/relay", h.handleRelayOutbox)
	})
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Jobs.LastRuns(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRelayOutbox(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.RelayNow(r.Context())
	if errors.Is(err, jobs.ErrRelayDisabled) {
		api.Fail(w, http.StatusConflict, "relay_disabled", "outbox relay is not configured", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("manual outbox relay failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "relay_failed", "outbox relay failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
