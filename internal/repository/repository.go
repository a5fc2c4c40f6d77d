package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameExists   = errors.New("username already exists")

	// ErrTableUnavailable is returned by CreateForTable when the table is
	// no longer available at commit time.
	ErrTableUnavailable = errors.New("table is not available")

	// ErrStatusChanged is returned by conditional updates when the row no
	// longer has the expected status.
	ErrStatusChanged = errors.New("status changed by another request")
)

// TableRepository defines data access for restaurant tables
type TableRepository interface {
	List(ctx context.Context) ([]models.Table, error)
	Get(ctx context.Context, id int) (*models.Table, error)
	UpdateStatus(ctx context.Context, id int, status models.TableStatus) error
	// UpdateStatusFrom sets the status only if it is still from, and fails
	// with ErrStatusChanged otherwise.
	UpdateStatusFrom(ctx context.Context, id int, from, to models.TableStatus) error
}

// MenuRepository defines data access for menu items
type MenuRepository interface {
	ListAvailable(ctx context.Context) ([]models.MenuItem, error)
	GetByID(ctx context.Context, id int64) (*models.MenuItem, error)
	Upsert(ctx context.Context, items []models.MenuItem) error
}

// OrderRepository defines data access for orders
type OrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	// CreateForTable stores the order and marks its table occupied as one
	// atomic step. It fails with ErrTableUnavailable if the table is not
	// available.
	CreateForTable(ctx context.Context, order models.Order) error
	// UpdateStatus and ReplaceLines only write while the order still has
	// status from, and fail with ErrStatusChanged otherwise.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	ReplaceLines(ctx context.Context, id string, from models.OrderStatus, lines []models.OrderLine, total decimal.Decimal) error
}

// UserRepository defines data access for staff accounts
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.UserRecord, error)
	Create(ctx context.Context, user models.UserRecord) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
}

// Store bundles the repositories backed by one storage engine
type Store interface {
	Tables() TableRepository
	Menu() MenuRepository
	Orders() OrderRepository
	Users() UserRepository
	Ping(ctx context.Context) error
	Close()
}
