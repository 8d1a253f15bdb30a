package auth

const (
	RoleEmployee    = "employee"
	RoleManager     = "manager"
	RoleHR          = "hr"
	RoleSystemAdmin = "system_admin"
)

const (
	PermLeaveRead     = "leave.read"
	PermLeaveWrite    = "leave.write"
	PermLeaveApprove  = "leave.approve"
	PermReviewersRead = "reviewers.read"
	PermAuditRead     = "audit.read"
	PermSystemAdmin   = "admin.system"
)

var DefaultPermissions = []string{
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermReviewersRead,
	PermAuditRead,
	PermSystemAdmin,
}

// RolePermissions lists the permissions each role adds on top of the roles
// it inherits through RoleParents.
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermLeaveRead,
		PermLeaveWrite,
		PermReviewersRead,
	},
	RoleManager: {
		PermLeaveApprove,
	},
	RoleHR: {
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermSystemAdmin,
		PermAuditRead,
	},
}

// RoleParents maps a role to the role whose permissions it inherits.
var RoleParents = map[string]string{
	RoleManager: RoleEmployee,
	RoleHR:      RoleManager,
}

// ReviewerRoles are the roles that may hold a leave request for review.
var ReviewerRoles = []string{RoleManager, RoleHR}

func IsReviewerRole(role string) bool {
	for _, r := range ReviewerRoles {
		if r == role {
			return true
		}
	}
	return false
}
