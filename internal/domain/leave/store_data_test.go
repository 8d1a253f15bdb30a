package leave_test

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
	"staffperf/internal/platform/db"
	"staffperf/migrations"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool, migrations.FS))
	return pool
}

func seedPeople(t *testing.T, pool *pgxpool.Pool) (orgID, employeeID, managerID, hrID string) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	orgID, err := db.EnsureOrganization(ctx, pool, "store-test-"+suffix)
	require.NoError(t, err)

	ensure := func(name, role, manager string) string {
		id, err := db.EnsureUser(ctx, pool, db.SeedUser{
			OrganizationID: orgID,
			Email:          name + "-" + suffix + "@example.test",
			Password:       "Passw0rd!",
			Name:           name,
			Role:           role,
			ManagerID:      manager,
		})
		require.NoError(t, err)
		return id
	}
	managerID = ensure("manager", auth.RoleManager, "")
	hrID = ensure("hr", auth.RoleHR, "")
	employeeID = ensure("employee", auth.RoleEmployee, managerID)
	return orgID, employeeID, managerID, hrID
}

func TestStoreSaveWithHistory(t *testing.T) {
	pool := openTestPool(t)
	orgID, employeeID, managerID, hrID := seedPeople(t, pool)
	store := leave.NewStore(pool)
	ctx := context.Background()

	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	created, err := store.Create(ctx, leave.LeaveRequest{
		OrganizationID:     orgID,
		EmployeeID:         employeeID,
		LeaveType:          leave.TypeAnnual,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, 2),
		Days:               3,
		Reason:             "family trip",
		OriginalReviewerID: managerID,
	})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, created.Status)
	assert.Equal(t, managerID, created.CurrentReviewerID)
	assert.Equal(t, 1, created.Version)
	assert.Empty(t, created.ReviewHistory)

	manager := leave.Actor{ID: managerID, Name: "manager", Role: auth.RoleManager}
	next, record, err := leave.Apply(created, leave.ActionReviewAndForward, leave.ActionParams{
		ReviewerID: hrID,
		Reason:     "needs HR sign-off",
		Actor:      manager,
	}, time.Now().UTC())
	require.NoError(t, err)

	saved, err := store.SaveWithHistory(ctx, next, record, created.Version)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusReviewed, saved.Status)
	assert.Equal(t, 1, saved.ReviewCount)
	assert.Equal(t, hrID, saved.CurrentReviewerID)
	assert.Equal(t, managerID, saved.OriginalReviewerID)
	assert.Equal(t, 2, saved.Version)
	require.Len(t, saved.ReviewHistory, 1)
	assert.Equal(t, 1, saved.ReviewHistory[0].ReviewOrder)
	assert.Equal(t, leave.HistoryReviewedAndForwarded, saved.ReviewHistory[0].Action)
	assert.Equal(t, hrID, saved.ReviewHistory[0].ForwardedTo)

	_, err = store.SaveWithHistory(ctx, next, record, created.Version)
	assert.ErrorIs(t, err, leave.ErrConcurrentModification)

	var events int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(1) FROM outbox_events WHERE aggregate_id = $1", created.ID).Scan(&events))
	assert.Equal(t, 2, events)
}

func TestStoreGetUnknown(t *testing.T) {
	pool := openTestPool(t)
	store := leave.NewStore(pool)

	_, err := store.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, leave.ErrNotFound)

	_, err = store.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestStoreListOpenAssigned(t *testing.T) {
	pool := openTestPool(t)
	orgID, employeeID, managerID, _ := seedPeople(t, pool)
	store := leave.NewStore(pool)
	ctx := context.Background()

	start := time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_, err := store.Create(ctx, leave.LeaveRequest{
			OrganizationID:     orgID,
			EmployeeID:         employeeID,
			LeaveType:          leave.TypeSick,
			StartDate:          start.AddDate(0, 0, 7*i),
			EndDate:            start.AddDate(0, 0, 7*i),
			Days:               1,
			OriginalReviewerID: managerID,
		})
		require.NoError(t, err)
	}

	result, err := store.ListRequests(ctx, leave.ListFilter{
		OrganizationID:    orgID,
		CurrentReviewerID: managerID,
		OpenOnly:          true,
	}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Requests, 1)
}
