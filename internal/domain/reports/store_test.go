package reports_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/leave"
	"staffperf/internal/domain/reports"
	"staffperf/internal/platform/db"
	"staffperf/migrations"
)

func TestStoreWorkflowAggregates(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(ctx, pool, migrations.FS))

	suffix := uuid.NewString()[:8]
	orgID, err := db.EnsureOrganization(ctx, pool, "reports-test-"+suffix)
	require.NoError(t, err)
	user := func(name, role string) string {
		id, err := db.EnsureUser(ctx, pool, db.SeedUser{
			OrganizationID: orgID,
			Email:          name + "-" + suffix + "@example.test",
			Password:       "Passw0rd!",
			Name:           name,
			Role:           role,
		})
		require.NoError(t, err)
		return id
	}
	managerID := user("manager", auth.RoleManager)
	hrID := user("hr", auth.RoleHR)
	employeeID := user("employee", auth.RoleEmployee)

	leaveStore := leave.NewStore(pool)
	start := time.Now().UTC().AddDate(0, 1, 0)
	submit := func() leave.LeaveRequest {
		l, err := leaveStore.Create(ctx, leave.LeaveRequest{
			OrganizationID:     orgID,
			EmployeeID:         employeeID,
			LeaveType:          leave.TypeAnnual,
			StartDate:          start,
			EndDate:            start,
			Days:               1,
			OriginalReviewerID: managerID,
		})
		require.NoError(t, err)
		return l
	}

	manager := leave.Actor{ID: managerID, Name: "manager", Role: auth.RoleManager}
	hr := leave.Actor{ID: hrID, Name: "hr", Role: auth.RoleHR}
	steps := []struct {
		action leave.Action
		params leave.ActionParams
		after  time.Duration
	}{
		{leave.ActionReviewAndForward, leave.ActionParams{ReviewerID: hrID, Reason: "hr check", Actor: manager}, time.Hour},
		{leave.ActionReview, leave.ActionParams{Actor: hr}, 2 * time.Hour},
		{leave.ActionApproveAndForward, leave.ActionParams{ReviewerID: managerID, Reason: "back to manager", Actor: hr}, 3 * time.Hour},
		{leave.ActionApprove, leave.ActionParams{Actor: manager}, 4 * time.Hour},
		{leave.ActionApprove, leave.ActionParams{Actor: manager}, 10 * time.Hour},
	}

	l := submit()
	for _, step := range steps {
		next, record, err := leave.Apply(l, step.action, step.params, l.CreatedAt.Add(step.after))
		require.NoError(t, err, step.action)
		l, err = leaveStore.SaveWithHistory(ctx, next, record, l.Version)
		require.NoError(t, err, step.action)
	}
	require.Equal(t, leave.StatusApproved, l.Status)
	require.Equal(t, leave.FinalReviewCount, l.ReviewCount)

	open := submit()

	store := reports.NewStore(pool)

	median, err := store.MedianDecisionHours(ctx, orgID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, median, 0.01)

	byReviewer, err := store.OpenByReviewer(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{open.CurrentReviewerID: 1}, byReviewer)
}
