package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffperf/internal/domain/leave"
)

type memoryStore struct {
	created []Notification
	err     error
}

func (m *memoryStore) Create(ctx context.Context, organizationID string, n Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memoryStore) List(ctx context.Context, organizationID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return m.created, nil
}

func (m *memoryStore) Count(ctx context.Context, organizationID, userID string, unreadOnly bool) (int, error) {
	return len(m.created), nil
}

func (m *memoryStore) MarkRead(ctx context.Context, organizationID, userID, notificationID string) error {
	return nil
}

func sampleLeave(status string, count int) leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:                "l1",
		OrganizationID:    "org",
		EmployeeID:        "emp",
		LeaveType:         leave.TypeAnnual,
		StartDate:         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
		Status:            status,
		ReviewCount:       count,
		CurrentReviewerID: "lead",
		RejectionReason:   "overlap",
	}
}

func TestMessagesByStatus(t *testing.T) {
	cases := []struct {
		name  string
		l     leave.LeaveRequest
		actor string
		want  map[string]string
	}{
		{"submitted", sampleLeave(leave.StatusPending, 0), "emp", map[string]string{"lead": TypeLeaveAssigned}},
		{"forwarded", sampleLeave(leave.StatusReviewed, 1), "mgr", map[string]string{"lead": TypeLeaveAssigned, "emp": TypeLeaveReviewed}},
		{"reviewed in place", sampleLeave(leave.StatusReviewed, 2), "lead", map[string]string{"emp": TypeLeaveReviewed}},
		{"approved", sampleLeave(leave.StatusApproved, 5), "lead", map[string]string{"emp": TypeLeaveApproved}},
		{"rejected", sampleLeave(leave.StatusRejected, 0), "lead", map[string]string{"emp": TypeLeaveRejected}},
		{"cancelled", sampleLeave(leave.StatusCancelled, 1), "emp", map[string]string{"lead": TypeLeaveCancelled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := map[string]string{}
			for _, n := range Messages(tc.l, tc.actor) {
				got[n.UserID] = n.Type
				assert.Equal(t, "l1", n.LeaveRequestID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRejectedMessageCarriesReason(t *testing.T) {
	msgs := Messages(sampleLeave(leave.StatusRejected, 0), "lead")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "overlap")
}

func TestLeaveChangedSwallowsStoreErrors(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	New(store).LeaveChanged(context.Background(), sampleLeave(leave.StatusPending, 0), "emp")
	assert.Empty(t, store.created)

	store.err = nil
	New(store).LeaveChanged(context.Background(), sampleLeave(leave.StatusApproved, 5), "hr")
	require.Len(t, store.created, 1)
	assert.Equal(t, "emp", store.created[0].UserID)

	var nilService *Service
	nilService.LeaveChanged(context.Background(), sampleLeave(leave.StatusPending, 0), "emp")
}
