package rbac

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// Enforcer answers role/permission checks from an in-memory casbin policy.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// NewEnforcer loads one policy line per role and permission pair, then links
// each role in roleParents to the role it inherits from.
func NewEnforcer(rolePermissions map[string][]string, roleParents map[string]string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for role, perms := range rolePermissions {
		for _, perm := range perms {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, fmt.Errorf("rbac policy %s/%s: %w", role, perm, err)
			}
		}
	}
	out := &Enforcer{enforcer: e}
	for role, parent := range roleParents {
		if err := out.Inherit(role, parent); err != nil {
			return nil, fmt.Errorf("rbac inherit %s/%s: %w", role, parent, err)
		}
	}
	return out, nil
}

func (e *Enforcer) HasPermission(_ context.Context, role, permission string) (bool, error) {
	if role == "" || permission == "" {
		return false, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enforcer.Enforce(role, permission)
}

// Inherit makes role carry every permission of parent.
func (e *Enforcer) Inherit(role, parent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.enforcer.AddGroupingPolicy(role, parent)
	return err
}
