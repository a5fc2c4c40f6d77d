package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stored orders keep quantities as INTEGER and totals as NUMERIC(10,2)
const maxLineQuantity = math.MaxInt32

var maxOrderTotal = decimal.RequireFromString("99999999.99")

// MenuLookup resolves menu items for pricing
type MenuLookup interface {
	GetByID(ctx context.Context, id int64) (*models.MenuItem, error)
}

// OrderService handles order business logic
type OrderService struct {
	orders    repository.OrderRepository
	menu      MenuLookup
	publisher notify.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(orders repository.OrderRepository, menu MenuLookup, publisher notify.Publisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		menu:      menu,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ListOrders returns all orders newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

// PlaceOrder prices the requested lines at current menu prices, stores the
// order as active and occupies the table in one step.
func (s *OrderService) PlaceOrder(ctx context.Context, tableID int, reqs []models.LineRequest, submittedBy *models.UserRef) (*models.Order, error) {
	lines, err := s.priceLines(ctx, reqs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := models.Order{
		ID:          generateOrderID(),
		TableID:     tableID,
		Lines:       lines,
		Total:       models.ComputeTotal(lines),
		Status:      models.OrderActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		SubmittedBy: submittedBy,
	}

	if err := s.orders.CreateForTable(ctx, order); err != nil {
		return nil, fmt.Errorf("create order for table %d: %w", tableID, err)
	}

	s.logger.Info("order placed",
		"order_id", order.ID,
		"table_id", tableID,
		"total", order.Total.StringFixed(2),
		"lines", len(lines),
	)
	announce(ctx, s.publisher, s.logger,
		notify.NewChange(notify.EntityOrders, order.ID),
		notify.NewChange(notify.EntityTables, strconv.Itoa(tableID)),
	)

	return &order, nil
}

// UpdateStatus moves an order along its lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next models.OrderStatus) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}

	err = s.orders.UpdateStatus(ctx, id, order.Status, next)
	if errors.Is(err, repository.ErrStatusChanged) {
		return fmt.Errorf("%w: order %s changed while updating", ErrInvalidTransition, id)
	}
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}

	s.logger.Info("order status changed", "order_id", id, "from", order.Status, "to", next)
	announce(ctx, s.publisher, s.logger, notify.NewChange(notify.EntityOrders, id))
	return nil
}

// Cancel marks an active or preparing order cancelled
func (s *OrderService) Cancel(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, models.OrderCancelled)
}

// ReplaceLines swaps the lines of an order that has not been served or
// cancelled, recomputing its total.
func (s *OrderService) ReplaceLines(ctx context.Context, id string, reqs []models.LineRequest) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderActive && order.Status != models.OrderPreparing {
		return nil, ErrOrderLocked
	}

	lines, err := s.priceLines(ctx, reqs)
	if err != nil {
		return nil, err
	}
	total := models.ComputeTotal(lines)

	err = s.orders.ReplaceLines(ctx, id, order.Status, lines, total)
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, fmt.Errorf("%w: order %s changed while editing", ErrInvalidTransition, id)
	}
	if err != nil {
		return nil, fmt.Errorf("replace lines of order %s: %w", id, err)
	}

	order.Lines = lines
	order.Total = total
	announce(ctx, s.publisher, s.logger, notify.NewChange(notify.EntityOrders, id))
	return order, nil
}

// priceLines validates requests and resolves names and unit prices.
// Repeated items are merged into the first occurrence.
func (s *OrderService) priceLines(ctx context.Context, reqs []models.LineRequest) ([]models.OrderLine, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyOrder
	}

	lines := make([]models.OrderLine, 0, len(reqs))
	index := make(map[int64]int)

	for _, req := range reqs {
		if req.Quantity <= 0 || req.Quantity > maxLineQuantity {
			return nil, ErrInvalidQuantity
		}

		if i, ok := index[req.MenuItemID]; ok {
			if lines[i].Quantity > maxLineQuantity-req.Quantity {
				return nil, ErrInvalidQuantity
			}
			lines[i].Quantity += req.Quantity
			continue
		}

		item, err := s.menu.GetByID(ctx, req.MenuItemID)
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return nil, ErrInvalidItem
		}
		if err != nil {
			return nil, fmt.Errorf("lookup menu item %d: %w", req.MenuItemID, err)
		}
		if !item.Available {
			return nil, ErrInvalidItem
		}

		index[req.MenuItemID] = len(lines)
		lines = append(lines, models.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   req.Quantity,
			UnitPrice:  item.Price,
		})
	}

	if models.ComputeTotal(lines).GreaterThan(maxOrderTotal) {
		return nil, ErrInvalidQuantity
	}
	return lines, nil
}

// generateOrderID generates a unique order ID using UUID
func generateOrderID() string {
	return uuid.New().String()
}
