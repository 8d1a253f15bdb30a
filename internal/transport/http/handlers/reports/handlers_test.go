package reportshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/reports"
	"staffperf/internal/platform/rbac"
	"staffperf/internal/transport/http/middleware"
)

type fakeStore struct{}

func (fakeStore) StatusCounts(ctx context.Context, organizationID string) (map[string]int, error) {
	return map[string]int{"pending": 3}, nil
}

func (fakeStore) OpenStageCounts(ctx context.Context, organizationID string) (map[int]int, error) {
	return map[int]int{1: 3}, nil
}

func (fakeStore) AwaitingReviewer(ctx context.Context, organizationID, reviewerID string) (int, error) {
	return 2, nil
}

func (fakeStore) OpenByReviewer(ctx context.Context, organizationID string) (map[string]int, error) {
	return map[string]int{"u": 2, "hr-1": 1}, nil
}

func (fakeStore) MedianDecisionHours(ctx context.Context, organizationID string) (float64, error) {
	return 4, nil
}

func (fakeStore) ListJobRuns(ctx context.Context, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, error) {
	return []reports.JobRun{{ID: "r1", JobType: "outbox_relay", Status: "completed"}}, nil
}

func (fakeStore) CountJobRuns(ctx context.Context, filter reports.JobRunFilter) (int, error) {
	return 1, nil
}

func serve(t *testing.T, role, target string) *httptest.ResponseRecorder {
	t.Helper()
	perms, err := rbac.NewEnforcer(auth.RolePermissions, auth.RoleParents)
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(reports.NewService(fakeStore{}), perms).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", OrganizationID: "org", RoleName: role}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDashboardForReviewers(t *testing.T) {
	rec := serve(t, auth.RoleManager, "/reports/leave/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"awaitingMe":2`)

	rec = serve(t, auth.RoleEmployee, "/reports/leave/dashboard")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJobRunsForAdmins(t *testing.T) {
	rec := serve(t, auth.RoleSystemAdmin, "/reports/jobs?jobType=outbox_relay")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = serve(t, auth.RoleHR, "/reports/jobs")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
