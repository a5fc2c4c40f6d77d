// Package session routes a staff member through the POS screens.
//
// Screen changes are computed by Transition, a pure function over an
// immutable State. A Controller wraps one State with the side effects a
// transition needs (authentication, data fetches, order submission) and a
// Manager keeps the live controllers keyed by session token.
package session

import (
	"github.com/Lixing-Zhang/restaurant-pos/internal/cart"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
)

// Screen is the view currently shown to the staff member
type Screen string

const (
	ScreenLoggedOut  Screen = "logged_out"
	ScreenDashboard  Screen = "dashboard"
	ScreenOrderEntry Screen = "order_entry"
	ScreenAdmin      Screen = "admin"
)

// Snapshot is the last fetched copy of the shared collections.
// It is only ever replaced, never edited in place.
type Snapshot struct {
	Tables []models.Table
	Menu   []models.MenuItem
	Orders []models.Order
	Users  []models.User
}

// Scope selects which collections of a Snapshot a refresh replaces
type Scope uint8

const (
	ScopeTables Scope = 1 << iota
	ScopeMenu
	ScopeOrders
	ScopeUsers

	ScopeAll = ScopeTables | ScopeMenu | ScopeOrders | ScopeUsers
)

// Has reports whether s includes all collections of other
func (s Scope) Has(other Scope) bool {
	return s&other == other
}

// State is the complete session state. Identity is nil exactly when the
// screen is ScreenLoggedOut; TableID is set only on ScreenOrderEntry.
type State struct {
	Screen   Screen
	Identity *models.Identity
	TableID  int
	Cart     cart.Cart
	Data     Snapshot
}

// Initial returns the logged-out state
func Initial() State {
	return State{Screen: ScreenLoggedOut}
}

// LoggedIn reports whether the state carries an identity
func (s State) LoggedIn() bool {
	return s.Identity != nil
}
