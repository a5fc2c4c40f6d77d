package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore implements Store with in-memory storage guarded by a single
// mutex, so multi-collection writes are atomic.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[int]models.Table
	menu   map[int64]models.MenuItem
	orders map[string]models.Order
	users  map[string]models.UserRecord
	now    func() time.Time
}

// NewMemoryStore creates a store seeded with the default tables and menu
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		tables: make(map[int]models.Table),
		menu:   make(map[int64]models.MenuItem),
		orders: make(map[string]models.Order),
		users:  make(map[string]models.UserRecord),
		now:    time.Now,
	}

	now := s.now().UTC()
	for id := 1; id <= DefaultTableCount; id++ {
		s.tables[id] = models.Table{ID: id, Status: models.TableAvailable, SeatCount: seatCountFor(id), UpdatedAt: now}
	}
	for _, item := range DefaultMenu() {
		s.menu[item.ID] = item
	}

	return s
}

func (s *MemoryStore) Tables() TableRepository { return memoryTables{s} }
func (s *MemoryStore) Menu() MenuRepository     { return memoryMenu{s} }
func (s *MemoryStore) Orders() OrderRepository  { return memoryOrders{s} }
func (s *MemoryStore) Users() UserRepository    { return memoryUsers{s} }

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() {}

type memoryTables struct{ s *MemoryStore }

// List returns all tables ordered by ID
func (r memoryTables) List(ctx context.Context) ([]models.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tables := make([]models.Table, 0, len(r.s.tables))
	for _, t := range r.s.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables, nil
}

func (r memoryTables) Get(ctx context.Context, id int) (*models.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return &t, nil
}

func (r memoryTables) UpdateStatus(ctx context.Context, id int, status models.TableStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tables[id]
	if !ok {
		return ErrTableNotFound
	}
	t.Status = status
	t.UpdatedAt = r.s.now().UTC()
	r.s.tables[id] = t
	return nil
}

func (r memoryTables) UpdateStatusFrom(ctx context.Context, id int, from, to models.TableStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tables[id]
	if !ok {
		return ErrTableNotFound
	}
	if t.Status != from {
		return ErrStatusChanged
	}
	t.Status = to
	t.UpdatedAt = r.s.now().UTC()
	r.s.tables[id] = t
	return nil
}

type memoryMenu struct{ s *MemoryStore }

// ListAvailable returns available items ordered by ID
func (r memoryMenu) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]models.MenuItem, 0, len(r.s.menu))
	for _, item := range r.s.menu {
		if item.Available {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r memoryMenu) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.menu[id]
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	return &item, nil
}

func (r memoryMenu) Upsert(ctx context.Context, items []models.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, item := range items {
		r.s.menu[item.ID] = item
	}
	return nil
}

type memoryOrders struct{ s *MemoryStore }

// List returns all orders newest first
func (r memoryOrders) List(ctx context.Context) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		orders = append(orders, cloneOrder(o))
	}
	models.SortNewestFirst(orders)
	return orders, nil
}

func (r memoryOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r memoryOrders) CreateForTable(ctx context.Context, order models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tables[order.TableID]
	if !ok {
		return ErrTableNotFound
	}
	if !t.Selectable() {
		return ErrTableUnavailable
	}

	r.s.orders[order.ID] = cloneOrder(order)
	t.Status = models.TableOccupied
	t.UpdatedAt = r.s.now().UTC()
	r.s.tables[t.ID] = t
	return nil
}

func (r memoryOrders) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = r.s.now().UTC()
	r.s.orders[id] = o
	return nil
}

func (r memoryOrders) ReplaceLines(ctx context.Context, id string, from models.OrderStatus, lines []models.OrderLine, total decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrStatusChanged
	}
	o.Lines = append([]models.OrderLine(nil), lines...)
	o.Total = total
	o.UpdatedAt = r.s.now().UTC()
	r.s.orders[id] = o
	return nil
}

type memoryUsers struct{ s *MemoryStore }

// List returns all users ordered by username
func (r memoryUsers) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r memoryUsers) GetByUsername(ctx context.Context, username string) (*models.UserRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			rec := u
			return &rec, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r memoryUsers) Create(ctx context.Context, user models.UserRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return ErrUsernameExists
		}
	}
	r.s.users[user.ID] = user
	return nil
}

func (r memoryUsers) UpdateRole(ctx context.Context, id string, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

func cloneOrder(o models.Order) models.Order {
	o.Lines = append([]models.OrderLine(nil), o.Lines...)
	if o.SubmittedBy != nil {
		ref := *o.SubmittedBy
		o.SubmittedBy = &ref
	}
	return o
}
