package session

import "github.com/Lixing-Zhang/restaurant-pos/internal/models"

// Capability is an action class granted to a role
type Capability string

const (
	CapTakeOrders    Capability = "take_orders"
	CapReserveTables Capability = "reserve_tables"
	CapAdminPanel    Capability = "admin_panel"
	CapManageOrders  Capability = "manage_orders"
	CapManageUsers   Capability = "manage_users"
	CapReleaseTables Capability = "release_tables"
	CapViewAnalytics Capability = "view_analytics"
)

var roleCapabilities = map[models.Role][]Capability{
	models.RoleWaiter: {CapTakeOrders, CapReserveTables},
	models.RoleAdmin: {
		CapTakeOrders, CapReserveTables, CapAdminPanel,
		CapManageOrders, CapManageUsers, CapReleaseTables, CapViewAnalytics,
	},
}

// Can reports whether role has capability c.
// All role-based branching goes through this function.
func Can(role models.Role, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// homeScreen is where a role lands after login and after leaving order entry
func homeScreen(role models.Role) Screen {
	if Can(role, CapAdminPanel) {
		return ScreenAdmin
	}
	return ScreenDashboard
}

// refreshScope is what a role loads on entering its screens
func refreshScope(role models.Role) Scope {
	if Can(role, CapManageUsers) {
		return ScopeAll
	}
	return ScopeTables | ScopeMenu | ScopeOrders
}

// Authorize checks that s is logged in with capability c
func Authorize(s State, c Capability) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	if !Can(s.Identity.Role, c) {
		return ErrNotPermitted
	}
	return nil
}
