package session

import "errors"

var (
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrInvalidIdentity  = errors.New("identity has no valid role")
	ErrWrongScreen      = errors.New("action is not available on this screen")
	ErrNotPermitted     = errors.New("action is not permitted for this role")
	ErrTableUnavailable = errors.New("table is not available")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrUnknownMenuItem  = errors.New("menu item is not on the menu")
	ErrUnknownSession   = errors.New("session not found")
)
