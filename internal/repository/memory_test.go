package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newOrder(tableID int) models.Order {
	line := models.OrderLine{MenuItemID: 1, Name: "Margherita Pizza", Quantity: 1, UnitPrice: decimal.RequireFromString("12.99")}
	now := time.Now().UTC()
	return models.Order{
		ID:        uuid.New().String(),
		TableID:   tableID,
		Lines:     []models.OrderLine{line},
		Total:     models.ComputeTotal([]models.OrderLine{line}),
		Status:    models.OrderActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStore_Seed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tables, err := store.Tables().List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != DefaultTableCount {
		t.Errorf("expected %d tables, got %d", DefaultTableCount, len(tables))
	}
	for i, table := range tables {
		if table.ID != i+1 {
			t.Errorf("expected table %d at position %d, got %d", i+1, i, table.ID)
		}
		if table.Status != models.TableAvailable {
			t.Errorf("expected table %d available, got %s", table.ID, table.Status)
		}
	}

	menu, err := store.Menu().ListAvailable(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(menu) != 8 {
		t.Errorf("expected 8 menu items, got %d", len(menu))
	}
}

func TestMemoryStore_CreateForTable(t *testing.T) {
	tests := []struct {
		name      string
		tableID   int
		setup     func(s *MemoryStore)
		wantErr   error
		wantCount int
	}{
		{
			name:      "available table becomes occupied",
			tableID:   3,
			wantErr:   nil,
			wantCount: 1,
		},
		{
			name:    "occupied table is rejected",
			tableID: 5,
			setup: func(s *MemoryStore) {
				_ = s.Tables().UpdateStatus(context.Background(), 5, models.TableOccupied)
			},
			wantErr:   ErrTableUnavailable,
			wantCount: 0,
		},
		{
			name:    "reserved table is rejected",
			tableID: 6,
			setup: func(s *MemoryStore) {
				_ = s.Tables().UpdateStatus(context.Background(), 6, models.TableReserved)
			},
			wantErr:   ErrTableUnavailable,
			wantCount: 0,
		},
		{
			name:      "unknown table",
			tableID:   99,
			wantErr:   ErrTableNotFound,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			ctx := context.Background()
			if tt.setup != nil {
				tt.setup(store)
			}

			err := store.Orders().CreateForTable(ctx, newOrder(tt.tableID))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}

			orders, _ := store.Orders().List(ctx)
			if len(orders) != tt.wantCount {
				t.Errorf("expected %d orders, got %d", tt.wantCount, len(orders))
			}

			if tt.wantErr == nil {
				table, _ := store.Tables().Get(ctx, tt.tableID)
				if table.Status != models.TableOccupied {
					t.Errorf("expected table occupied, got %s", table.Status)
				}
			}
		})
	}
}

func TestMemoryStore_ConcurrentCreateOccupiesOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Orders().CreateForTable(ctx, newOrder(7))
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrTableUnavailable) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one order to succeed, got %d", succeeded)
	}
}

func TestMemoryStore_OrderUpdates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	order := newOrder(2)

	if err := store.Orders().CreateForTable(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Orders().UpdateStatus(ctx, order.ID, models.OrderActive, models.OrderPreparing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := []models.OrderLine{{MenuItemID: 7, Name: "Coffee", Quantity: 2, UnitPrice: decimal.RequireFromString("3.99")}}
	if err := store.Orders().ReplaceLines(ctx, order.ID, models.OrderPreparing, lines, models.ComputeTotal(lines)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Orders().Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.OrderPreparing {
		t.Errorf("expected status preparing, got %s", got.Status)
	}
	if len(got.Lines) != 1 || got.Lines[0].MenuItemID != 7 {
		t.Errorf("unexpected lines: %+v", got.Lines)
	}
	if !got.Total.Equal(decimal.RequireFromString("7.98")) {
		t.Errorf("expected total 7.98, got %s", got.Total)
	}

	if err := store.Orders().UpdateStatus(ctx, "missing", models.OrderActive, models.OrderServed); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestMemoryStore_ConditionalUpdates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	order := newOrder(3)

	if err := store.Orders().CreateForTable(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Orders().UpdateStatus(ctx, order.ID, models.OrderActive, models.OrderCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Writers that read the order as active must not overwrite the cancel
	if err := store.Orders().UpdateStatus(ctx, order.ID, models.OrderActive, models.OrderPreparing); !errors.Is(err, ErrStatusChanged) {
		t.Errorf("expected ErrStatusChanged, got %v", err)
	}
	lines := []models.OrderLine{{MenuItemID: 7, Name: "Coffee", Quantity: 1, UnitPrice: decimal.RequireFromString("3.99")}}
	if err := store.Orders().ReplaceLines(ctx, order.ID, models.OrderActive, lines, models.ComputeTotal(lines)); !errors.Is(err, ErrStatusChanged) {
		t.Errorf("expected ErrStatusChanged, got %v", err)
	}
	got, _ := store.Orders().Get(ctx, order.ID)
	if got.Status != models.OrderCancelled || got.Lines[0].MenuItemID == 7 {
		t.Errorf("expected untouched cancelled order, got %+v", got)
	}

	if err := store.Tables().UpdateStatusFrom(ctx, 3, models.TableAvailable, models.TableReserved); !errors.Is(err, ErrStatusChanged) {
		t.Errorf("expected ErrStatusChanged for occupied table, got %v", err)
	}
	if err := store.Tables().UpdateStatusFrom(ctx, 3, models.TableOccupied, models.TableAvailable); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := store.Tables().UpdateStatusFrom(ctx, 404, models.TableAvailable, models.TableReserved); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestMemoryStore_Users(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := models.UserRecord{
		User:         models.User{ID: uuid.New().String(), Username: "Sam", Role: models.RoleWaiter, CreatedAt: time.Now()},
		PasswordHash: "hash",
	}
	if err := store.Users().Create(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := rec
	dup.ID = uuid.New().String()
	dup.Username = "sam"
	if err := store.Users().Create(ctx, dup); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}

	got, err := store.Users().GetByUsername(ctx, "SAM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("expected user %s, got %s", rec.ID, got.ID)
	}

	if err := store.Users().UpdateRole(ctx, rec.ID, models.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	users, _ := store.Users().List(ctx)
	if len(users) != 1 || users[0].Role != models.RoleAdmin {
		t.Errorf("expected one admin user, got %+v", users)
	}

	if _, err := store.Users().GetByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryStore_MenuUpsertHidesUnavailable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Menu().Upsert(ctx, []models.MenuItem{
		{ID: 2, Name: "Caesar Salad", Price: decimal.RequireFromString("9.49"), Category: "Salads", Available: false},
		{ID: 9, Name: "Tiramisu", Price: decimal.RequireFromString("7.50"), Category: "Desserts", Available: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	menu, _ := store.Menu().ListAvailable(ctx)
	if _, ok := models.FindMenuItem(menu, 2); ok {
		t.Error("expected unavailable item to be hidden")
	}
	if _, ok := models.FindMenuItem(menu, 9); !ok {
		t.Error("expected new item to be listed")
	}

	item, err := store.Menu().GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.Price.Equal(decimal.RequireFromString("9.49")) {
		t.Errorf("expected updated price 9.49, got %s", item.Price)
	}
}
