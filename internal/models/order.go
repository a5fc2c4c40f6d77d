package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the kitchen lifecycle state of an order
type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderActive:    {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderServed, OrderCancelled},
	OrderServed:    {},
	OrderCancelled: {},
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from s to next
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderLine is a single menu item with its quantity and the unit price
// captured when the order was placed
type OrderLine struct {
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns UnitPrice x Quantity
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineRequest is a requested menu item and quantity, priced by the server
type LineRequest struct {
	MenuItemID int64 `json:"menuItemId"`
	Quantity   int   `json:"quantity"`
}

// Order is a submitted set of lines for a table
type Order struct {
	ID          string          `json:"id"`
	TableID     int             `json:"tableId"`
	Lines       []OrderLine     `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	SubmittedBy *UserRef        `json:"submittedBy,omitempty"`
}

// ComputeTotal sums the subtotals of all lines
func ComputeTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
