package reviewershandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/core"
	"staffperf/internal/transport/http/api"
	"staffperf/internal/transport/http/middleware"
	"staffperf/internal/transport/http/shared"
)

type Directory interface {
	ListEligible(ctx context.Context, organizationID, excludeID string) ([]core.Reviewer, error)
}

type Handler struct {
	Directory Directory
	Perms     middleware.PermissionStore
}

func NewHandler(directory Directory, perms middleware.PermissionStore) *Handler {
	return &Handler{Directory: directory, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermReviewersRead, h.Perms)).Get("/reviewers", h.handleListReviewers)
}

// handleListReviewers lists forward targets in the caller's organization.
// The caller is always excluded along with ?exclude=.
func (h *Handler) handleListReviewers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	exclude := strings.TrimSpace(r.URL.Query().Get("exclude"))
	reviewers, err := h.Directory.ListEligible(r.Context(), user.OrganizationID, exclude)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reviewers_failed", "failed to list reviewers", middleware.GetRequestID(r.Context()))
		return
	}

	out := make([]core.Reviewer, 0, len(reviewers))
	for _, rv := range reviewers {
		if rv.ID == user.UserID {
			continue
		}
		out = append(out, rv)
	}
	shared.WriteTotal(w, len(out))
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}
