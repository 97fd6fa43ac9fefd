package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	tests := []struct {
		name   string
		role   string
		action Action
		want   bool
	}{
		{"admin manages routes", "admin", ActionManageRoutes, true},
		{"admin manages buses", "admin", ActionManageBuses, true},
		{"admin manages trips", "admin", ActionManageTrips, true},
		{"admin manages users", "admin", ActionManageUsers, true},
		{"viewer reads profile", "viewer", ActionReadProfile, true},
		{"viewer cannot manage buses", "viewer", ActionManageBuses, false},
		{"viewer cannot manage users", "viewer", ActionManageUsers, false},
		{"unknown role denied", "driver", ActionReadProfile, false},
		{"empty role denied", "", ActionManageRoutes, false},
		{"unknown action denied", "admin", Action("fleet:paint"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Allows(tt.role, tt.action))
		})
	}
}
