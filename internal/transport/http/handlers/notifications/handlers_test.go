package notificationshandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"staffperf/internal/domain/auth"
	"staffperf/internal/domain/notifications"
	"staffperf/internal/transport/http/middleware"
)

type memoryStore struct {
	items map[string]notifications.Notification
}

func (m *memoryStore) Create(ctx context.Context, organizationID string, n notifications.Notification) error {
	m.items[n.ID] = n
	return nil
}

func (m *memoryStore) List(ctx context.Context, organizationID, userID string, unreadOnly bool, limit, offset int) ([]notifications.Notification, error) {
	out := []notifications.Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryStore) Count(ctx context.Context, organizationID, userID string, unreadOnly bool) (int, error) {
	items, _ := m.List(ctx, organizationID, userID, unreadOnly, 0, 0)
	return len(items), nil
}

func (m *memoryStore) MarkRead(ctx context.Context, organizationID, userID, notificationID string) error {
	n, ok := m.items[notificationID]
	if !ok || n.UserID != userID {
		return fmt.Errorf("%w: %s", notifications.ErrNotFound, notificationID)
	}
	return nil
}

func serve(method, target string) *httptest.ResponseRecorder {
	store := &memoryStore{items: map[string]notifications.Notification{
		"n1": {ID: "n1", UserID: "emp", Type: notifications.TypeLeaveApproved},
		"n2": {ID: "n2", UserID: "mgr", Type: notifications.TypeLeaveAssigned},
	}}
	r := chi.NewRouter()
	NewHandler(notifications.New(store)).RegisterRoutes(r)
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "emp", OrganizationID: "org", RoleName: auth.RoleEmployee}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListOwnNotifications(t *testing.T) {
	rec := serve(http.MethodGet, "/notifications")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Contains(t, rec.Body.String(), notifications.TypeLeaveApproved)
}

func TestMarkRead(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(http.MethodPost, "/notifications/n1/read").Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/notifications/n2/read").Code)
}
