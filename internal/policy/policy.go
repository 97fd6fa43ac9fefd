// Package policy holds the central (role, action) permission table. Handlers
// never compare role strings inline; every role-gated route is checked here
// before dispatch.
package policy

// Action identifies a protected operation
type Action string

const (
	ActionManageRoutes Action = "routes:manage"
	ActionManageBuses  Action = "buses:manage"
	ActionManageTrips  Action = "trips:manage"
	ActionManageUsers  Action = "users:manage"
	ActionReadProfile  Action = "profile:read"
)

// Table maps role -> set of allowed actions
type Table map[string]map[Action]bool

// Default returns the built-in permission table. Admins can do everything;
// viewers only read their own profile.
func Default() Table {
	return Table{
		"admin": {
			ActionManageRoutes: true,
			ActionManageBuses:  true,
			ActionManageTrips:  true,
			ActionManageUsers:  true,
			ActionReadProfile:  true,
		},
		"viewer": {
			ActionReadProfile: true,
		},
	}
}

// Allows reports whether the role may perform the action. Unknown roles and
// unknown actions are denied.
func (t Table) Allows(role string, action Action) bool {
	perms, ok := t[role]
	if !ok {
		return false
	}
	return perms[action]
}
