package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
)

const refreshNotice = "Could not refresh data; showing the last loaded state."

// Authenticator verifies credentials
type Authenticator interface {
	SignIn(ctx context.Context, cred models.Credential) (models.Identity, error)
	SignUp(ctx context.Context, cred models.Credential) (models.Identity, error)
}

// TableStore reads and updates tables
type TableStore interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	Reserve(ctx context.Context, id int) error
	Unreserve(ctx context.Context, id int) error
	Release(ctx context.Context, id int) error
}

// MenuStore reads the menu
type MenuStore interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
}

// OrderStore reads, submits and updates orders
type OrderStore interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	PlaceOrder(ctx context.Context, tableID int, lines []models.LineRequest, submittedBy *models.UserRef) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	Cancel(ctx context.Context, id string) error
	ReplaceLines(ctx context.Context, id string, lines []models.LineRequest) (*models.Order, error)
}

// UserStore reads and updates staff accounts
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ChangeRole(ctx context.Context, id string, role models.Role) error
}

// Analytics computes admin figures from current data
type Analytics interface {
	Summary(ctx context.Context) (models.Summary, error)
}

// Collaborators are the external services a Controller calls
type Collaborators struct {
	Auth      Authenticator
	Tables    TableStore
	Menu      MenuStore
	Orders    OrderStore
	Users     UserStore
	Analytics Analytics
}

// Controller runs one session. Transitions are applied one at a time.
// A failed collaborator call leaves the state untouched.
type Controller struct {
	mu     sync.Mutex
	state  State
	deps   Collaborators
	logger *slog.Logger
}

// NewController creates a logged-out session
func NewController(deps Collaborators, logger *slog.Logger) *Controller {
	return &Controller{state: Initial(), deps: deps, logger: logger}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View renders the current screen
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Render(c.state)
}

// Login signs in and lands on the role's home screen
func (c *Controller) Login(ctx context.Context, cred models.Credential) (View, error) {
	return c.authenticate(ctx, cred, c.deps.Auth.SignIn)
}

// SignUp registers a new account and lands on its home screen
func (c *Controller) SignUp(ctx context.Context, cred models.Credential) (View, error) {
	return c.authenticate(ctx, cred, c.deps.Auth.SignUp)
}

func (c *Controller) authenticate(ctx context.Context, cred models.Credential, fn func(context.Context, models.Credential) (models.Identity, error)) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.LoggedIn() {
		return Render(c.state), ErrAlreadyLoggedIn
	}

	identity, err := fn(ctx, cred)
	if err != nil {
		return Render(c.state), err
	}

	if err := c.apply(LoggedIn{Identity: identity}); err != nil {
		return Render(c.state), err
	}

	c.logger.Info("session started", "user_id", identity.ID, "role", identity.Role)
	return c.refreshLocked(ctx, refreshScope(identity.Role)), nil
}

// Logout ends the session
func (c *Controller) Logout() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.apply(Logout{}); err != nil {
		return Render(c.state), err
	}
	return Render(c.state), nil
}

// SelectTable opens order entry for an available table
func (c *Controller) SelectTable(tableID int) (View, error) {
	return c.dispatch(SelectTable{TableID: tableID})
}

// AddItem adds one unit of a menu item to the cart
func (c *Controller) AddItem(menuItemID int64) (View, error) {
	return c.dispatch(AddItem{MenuItemID: menuItemID})
}

// RemoveItem removes one unit of a menu item from the cart
func (c *Controller) RemoveItem(menuItemID int64) (View, error) {
	return c.dispatch(RemoveItem{MenuItemID: menuItemID})
}

// Back leaves order entry or the admin panel
func (c *Controller) Back() (View, error) {
	return c.dispatch(Back{})
}

// ToggleAdmin switches between dashboard and admin panel and refreshes
func (c *Controller) ToggleAdmin(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.apply(ToggleAdmin{}); err != nil {
		return Render(c.state), err
	}
	return c.refreshLocked(ctx, refreshScope(c.state.Identity.Role)), nil
}

// PlaceOrder submits the cart for the selected table. On success the
// session returns to the dashboard with an empty cart; on failure the cart
// is kept so the order can be retried.
func (c *Controller) PlaceOrder(ctx context.Context) (*models.Order, View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := CanPlaceOrder(c.state); err != nil {
		return nil, Render(c.state), err
	}

	identity := c.state.Identity
	order, err := c.deps.Orders.PlaceOrder(ctx, c.state.TableID, c.state.Cart.ToLineRequests(),
		&models.UserRef{ID: identity.ID, Username: identity.DisplayName})
	if err != nil {
		c.logger.Warn("order submission failed", "table_id", c.state.TableID, "error", err)
		return nil, Render(c.state), err
	}

	if err := c.apply(OrderPlaced{}); err != nil {
		return order, Render(c.state), err
	}
	return order, c.refreshLocked(ctx, refreshScope(identity.Role)), nil
}

// Refresh refetches every collection the role can see
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.LoggedIn() {
		return Render(c.state), ErrNotLoggedIn
	}
	return c.refreshLocked(ctx, refreshScope(c.state.Identity.Role)), nil
}

// HandleChange refetches the collection named by a change notification
func (c *Controller) HandleChange(ctx context.Context, change notify.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.LoggedIn() {
		return
	}
	if change.Entity == notify.EntityUsers && change.ID == c.state.Identity.ID && c.syncRoleLocked(ctx) {
		c.refreshLocked(ctx, refreshScope(c.state.Identity.Role))
		return
	}

	scope := scopeOf(change.Entity) & refreshScope(c.state.Identity.Role)
	if scope == 0 {
		return
	}
	c.refreshLocked(ctx, scope)
}

// syncRoleLocked reloads the signed-in user's role and reports whether it changed
func (c *Controller) syncRoleLocked(ctx context.Context) bool {
	users, err := c.deps.Users.ListUsers(ctx)
	if err != nil {
		c.logger.Warn("failed to reload role", "user_id", c.state.Identity.ID, "error", err)
		return false
	}
	for _, u := range users {
		if u.ID != c.state.Identity.ID || u.Role == c.state.Identity.Role {
			continue
		}
		if err := c.apply(RoleChanged{Role: u.Role}); err != nil {
			c.logger.Warn("ignoring role change", "user_id", u.ID, "role", u.Role, "error", err)
			return false
		}
		c.logger.Info("session role changed", "user_id", u.ID, "role", u.Role)
		return true
	}
	return false
}

// ReserveTable holds an available table
func (c *Controller) ReserveTable(ctx context.Context, tableID int) (View, error) {
	return c.act(ctx, CapReserveTables, ScopeTables, func() error {
		return c.deps.Tables.Reserve(ctx, tableID)
	})
}

// UnreserveTable frees a reserved table
func (c *Controller) UnreserveTable(ctx context.Context, tableID int) (View, error) {
	return c.act(ctx, CapReserveTables, ScopeTables, func() error {
		return c.deps.Tables.Unreserve(ctx, tableID)
	})
}

// ReleaseTable frees an occupied table
func (c *Controller) ReleaseTable(ctx context.Context, tableID int) (View, error) {
	return c.act(ctx, CapReleaseTables, ScopeTables, func() error {
		return c.deps.Tables.Release(ctx, tableID)
	})
}

// AdvanceOrder moves an order to the given status
func (c *Controller) AdvanceOrder(ctx context.Context, orderID string, status models.OrderStatus) (View, error) {
	return c.act(ctx, CapManageOrders, ScopeOrders, func() error {
		return c.deps.Orders.UpdateStatus(ctx, orderID, status)
	})
}

// CancelOrder cancels an order that has not been served
func (c *Controller) CancelOrder(ctx context.Context, orderID string) (View, error) {
	return c.act(ctx, CapManageOrders, ScopeOrders, func() error {
		return c.deps.Orders.Cancel(ctx, orderID)
	})
}

// EditOrderLines replaces the lines of an open order
func (c *Controller) EditOrderLines(ctx context.Context, orderID string, lines []models.LineRequest) (View, error) {
	return c.act(ctx, CapManageOrders, ScopeOrders, func() error {
		_, err := c.deps.Orders.ReplaceLines(ctx, orderID, lines)
		return err
	})
}

// ChangeRole assigns a role to a staff account
func (c *Controller) ChangeRole(ctx context.Context, userID string, role models.Role) (View, error) {
	return c.act(ctx, CapManageUsers, ScopeUsers, func() error {
		return c.deps.Users.ChangeRole(ctx, userID, role)
	})
}

// Users fetches the current staff list
func (c *Controller) Users(ctx context.Context) ([]models.User, error) {
	if err := c.authorize(CapManageUsers); err != nil {
		return nil, err
	}
	return c.deps.Users.ListUsers(ctx)
}

// Summary fetches current admin figures
func (c *Controller) Summary(ctx context.Context) (models.Summary, error) {
	if err := c.authorize(CapViewAnalytics); err != nil {
		return models.Summary{}, err
	}
	return c.deps.Analytics.Summary(ctx)
}

func (c *Controller) authorize(capability Capability) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Authorize(c.state, capability)
}

// dispatch applies a transition that needs no collaborator
func (c *Controller) dispatch(a Action) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.apply(a); err != nil {
		return Render(c.state), err
	}
	return Render(c.state), nil
}

// act runs a single collaborator update guarded by capability and then
// refetches the affected collections
func (c *Controller) act(ctx context.Context, capability Capability, scope Scope, fn func() error) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := Authorize(c.state, capability); err != nil {
		return Render(c.state), err
	}
	if err := fn(); err != nil {
		c.logger.Warn("session action failed", "capability", capability, "error", err)
		return Render(c.state), err
	}
	return c.refreshLocked(ctx, scope&refreshScope(c.state.Identity.Role)), nil
}

func (c *Controller) apply(a Action) error {
	next, err := Transition(c.state, a)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// refreshLocked fetches the scoped collections and replaces them together.
// If any fetch fails nothing is replaced and the view carries a notice.
func (c *Controller) refreshLocked(ctx context.Context, scope Scope) View {
	var data Snapshot
	var err error

	if scope.Has(ScopeTables) && err == nil {
		data.Tables, err = c.deps.Tables.ListTables(ctx)
	}
	if scope.Has(ScopeMenu) && err == nil {
		data.Menu, err = c.deps.Menu.ListMenu(ctx)
	}
	if scope.Has(ScopeOrders) && err == nil {
		data.Orders, err = c.deps.Orders.ListOrders(ctx)
	}
	if scope.Has(ScopeUsers) && err == nil {
		data.Users, err = c.deps.Users.ListUsers(ctx)
	}

	if err != nil {
		c.logger.Warn("refresh failed", "scope", scope, "error", err)
		v := Render(c.state)
		v.Notice = refreshNotice
		return v
	}

	if err := c.apply(Refreshed{Scope: scope, Data: data}); err != nil {
		c.logger.Debug("refresh discarded", "error", err)
	}
	return Render(c.state)
}

func scopeOf(entity notify.Entity) Scope {
	switch entity {
	case notify.EntityTables:
		return ScopeTables
	case notify.EntityMenu:
		return ScopeMenu
	case notify.EntityOrders:
		return ScopeOrders
	case notify.EntityUsers:
		return ScopeUsers
	default:
		return 0
	}
}
