package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffperf/internal/domain/auth"
)

func TestEnforcerRolePermissions(t *testing.T) {
	e, err := NewEnforcer(auth.RolePermissions, auth.RoleParents)
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		role string
		perm string
		want bool
	}{
		{auth.RoleEmployee, auth.PermLeaveWrite, true},
		{auth.RoleEmployee, auth.PermLeaveApprove, false},
		{auth.RoleManager, auth.PermLeaveApprove, true},
		{auth.RoleManager, auth.PermAuditRead, false},
		{auth.RoleManager, auth.PermLeaveRead, true},
		{auth.RoleHR, auth.PermAuditRead, true},
		{auth.RoleHR, auth.PermLeaveApprove, true},
		{auth.RoleHR, auth.PermReviewersRead, true},
		{auth.RoleEmployee, auth.PermAuditRead, false},
		{auth.RoleSystemAdmin, auth.PermLeaveRead, false},
		{auth.RoleSystemAdmin, auth.PermLeaveApprove, false},
		{"", auth.PermLeaveRead, false},
		{"contractor", auth.PermLeaveRead, false},
	}
	for _, tc := range cases {
		got, err := e.HasPermission(ctx, tc.role, tc.perm)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s/%s", tc.role, tc.perm)
	}
}

func TestEnforcerInherit(t *testing.T) {
	e, err := NewEnforcer(auth.RolePermissions, auth.RoleParents)
	require.NoError(t, err)
	require.NoError(t, e.Inherit("team_lead", auth.RoleManager))

	ok, err := e.HasPermission(context.Background(), "team_lead", auth.PermLeaveApprove)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnforcerWithoutParents(t *testing.T) {
	e, err := NewEnforcer(auth.RolePermissions, nil)
	require.NoError(t, err)

	ok, err := e.HasPermission(context.Background(), auth.RoleHR, auth.PermLeaveApprove)
	require.NoError(t, err)
	assert.False(t, ok)
}
