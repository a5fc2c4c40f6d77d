package session

import (
	"github.com/Lixing-Zhang/restaurant-pos/internal/cart"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
)

// Action is an input to Transition
type Action interface {
	isAction()
}

// LoggedIn carries the identity returned by a successful sign-in
type LoggedIn struct{ Identity models.Identity }

// SelectTable opens order entry for a table
type SelectTable struct{ TableID int }

// AddItem adds one unit of a menu item to the cart
type AddItem struct{ MenuItemID int64 }

// RemoveItem removes one unit of a menu item from the cart
type RemoveItem struct{ MenuItemID int64 }

// OrderPlaced records that the store accepted the cart as an order
type OrderPlaced struct{}

// Back leaves order entry or the admin panel
type Back struct{}

// ToggleAdmin switches between dashboard and admin panel
type ToggleAdmin struct{}

// Logout ends the session
type Logout struct{}

// RoleChanged applies a role an administrator assigned to the signed-in user
type RoleChanged struct{ Role models.Role }

// Refreshed replaces the scoped collections with freshly fetched data
type Refreshed struct {
	Scope Scope
	Data  Snapshot
}

func (LoggedIn) isAction()    {}
func (SelectTable) isAction() {}
func (AddItem) isAction()     {}
func (RemoveItem) isAction()  {}
func (OrderPlaced) isAction() {}
func (Back) isAction()        {}
func (ToggleAdmin) isAction() {}
func (Logout) isAction()      {}
func (RoleChanged) isAction() {}
func (Refreshed) isAction()   {}

// Transition computes the state that follows s under a. When a guard
// rejects the action it returns s unchanged together with the reason.
func Transition(s State, a Action) (State, error) {
	switch a := a.(type) {
	case LoggedIn:
		if s.LoggedIn() {
			return s, ErrAlreadyLoggedIn
		}
		if !a.Identity.Role.Valid() {
			return s, ErrInvalidIdentity
		}
		identity := a.Identity
		return State{Screen: homeScreen(identity.Role), Identity: &identity}, nil

	case Logout:
		if !s.LoggedIn() {
			return s, ErrNotLoggedIn
		}
		return Initial(), nil

	case SelectTable:
		if err := requireScreen(s, ScreenDashboard); err != nil {
			return s, err
		}
		if err := Authorize(s, CapTakeOrders); err != nil {
			return s, err
		}
		table, ok := models.FindTable(s.Data.Tables, a.TableID)
		if !ok || !table.Selectable() {
			return s, ErrTableUnavailable
		}
		next := s
		next.Screen = ScreenOrderEntry
		next.TableID = table.ID
		next.Cart = cart.Cart{}
		return next, nil

	case AddItem:
		if err := requireScreen(s, ScreenOrderEntry); err != nil {
			return s, err
		}
		item, ok := models.FindMenuItem(s.Data.Menu, a.MenuItemID)
		if !ok || !item.Available {
			return s, ErrUnknownMenuItem
		}
		next := s
		next.Cart = s.Cart.Add(item)
		return next, nil

	case RemoveItem:
		if err := requireScreen(s, ScreenOrderEntry); err != nil {
			return s, err
		}
		next := s
		next.Cart = s.Cart.Remove(a.MenuItemID)
		return next, nil

	case OrderPlaced:
		if err := CanPlaceOrder(s); err != nil {
			return s, err
		}
		return leaveOrderEntry(s, ScreenDashboard), nil

	case Back:
		switch s.Screen {
		case ScreenOrderEntry:
			return leaveOrderEntry(s, homeScreen(s.Identity.Role)), nil
		case ScreenAdmin:
			next := s
			next.Screen = ScreenDashboard
			return next, nil
		case ScreenLoggedOut:
			return s, ErrNotLoggedIn
		default:
			return s, ErrWrongScreen
		}

	case ToggleAdmin:
		if err := Authorize(s, CapAdminPanel); err != nil {
			return s, err
		}
		next := s
		switch s.Screen {
		case ScreenDashboard:
			next.Screen = ScreenAdmin
		case ScreenAdmin:
			next.Screen = ScreenDashboard
		default:
			return s, ErrWrongScreen
		}
		return next, nil

	case RoleChanged:
		if !s.LoggedIn() {
			return s, ErrNotLoggedIn
		}
		if !a.Role.Valid() {
			return s, ErrInvalidIdentity
		}
		identity := *s.Identity
		identity.Role = a.Role
		next := s
		next.Identity = &identity
		if next.Screen == ScreenAdmin && !Can(a.Role, CapAdminPanel) {
			next.Screen = ScreenDashboard
		}
		if next.Screen == ScreenOrderEntry && !Can(a.Role, CapTakeOrders) {
			next = leaveOrderEntry(next, homeScreen(a.Role))
		}
		if !Can(a.Role, CapManageUsers) {
			next.Data.Users = nil
		}
		return next, nil

	case Refreshed:
		if !s.LoggedIn() {
			return s, ErrNotLoggedIn
		}
		next := s
		if a.Scope.Has(ScopeTables) {
			next.Data.Tables = a.Data.Tables
		}
		if a.Scope.Has(ScopeMenu) {
			next.Data.Menu = a.Data.Menu
		}
		if a.Scope.Has(ScopeOrders) {
			next.Data.Orders = a.Data.Orders
		}
		if a.Scope.Has(ScopeUsers) {
			next.Data.Users = a.Data.Users
		}
		return next, nil
	}

	return s, ErrWrongScreen
}

// CanPlaceOrder checks the guard for submitting the cart
func CanPlaceOrder(s State) error {
	if err := requireScreen(s, ScreenOrderEntry); err != nil {
		return err
	}
	if err := Authorize(s, CapTakeOrders); err != nil {
		return err
	}
	if s.Cart.IsEmpty() {
		return ErrEmptyCart
	}
	return nil
}

func requireScreen(s State, screen Screen) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	if s.Screen != screen {
		return ErrWrongScreen
	}
	return nil
}

// leaveOrderEntry discards the cart and table selection
func leaveOrderEntry(s State, to Screen) State {
	next := s
	next.Screen = to
	next.TableID = 0
	next.Cart = cart.Cart{}
	return next
}
