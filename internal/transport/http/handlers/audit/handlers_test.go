package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffperf/internal/domain/audit"
	"staffperf/internal/domain/auth"
	"staffperf/internal/platform/rbac"
	"staffperf/internal/transport/http/middleware"
)

type fakeReader struct {
	filter audit.Filter
	org    string
	limit  int
}

func (f *fakeReader) Count(ctx context.Context, organizationID string, filter audit.Filter) (int, error) {
	return 7, nil
}

func (f *fakeReader) List(ctx context.Context, organizationID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error) {
	f.org, f.filter, f.limit = organizationID, filter, limit
	return []audit.Event{{
		ID:         "e1",
		ActorID:    "hr",
		Action:     "leave.request.approve",
		EntityType: "leave_request",
		EntityID:   "l1",
		CreatedAt:  time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
	}}, nil
}

func serve(t *testing.T, reader Reader, role, target string) *httptest.ResponseRecorder {
	t.Helper()
	perms, err := rbac.NewEnforcer(auth.RolePermissions, auth.RoleParents)
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(reader, perms).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", OrganizationID: "org", RoleName: role}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListEventsAppliesFilter(t *testing.T) {
	reader := &fakeReader{}
	rec := serve(t, reader, auth.RoleHR, "/audit/events?action=leave.request.approve&entityId=l1&limit=20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "org", reader.org)
	assert.Equal(t, audit.Filter{Action: "leave.request.approve", EntityID: "l1"}, reader.filter)
	assert.Equal(t, 20, reader.limit)
}

func TestExportEventsWritesCSV(t *testing.T) {
	rec := serve(t, &fakeReader{}, auth.RoleHR, "/audit/events/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "e1,hr,leave.request.approve,leave_request,l1,,,2024-01-05T09:00:00Z", lines[1])
}

func TestAuditRequiresPermission(t *testing.T) {
	rec := serve(t, &fakeReader{}, auth.RoleManager, "/audit/events")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
