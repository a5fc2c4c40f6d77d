// Package cart aggregates menu items into an in-progress order.
//
// A Cart is an immutable value: Add and Remove return a new Cart and leave
// the receiver untouched, so a cart can be held inside session state and
// replaced on every transition.
package cart

import (
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

// Line is a menu item and how many of it are in the cart.
// Quantity is always at least 1.
type Line struct {
	Item     models.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns the item price times the quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds lines in the order items were first added
type Cart struct {
	lines []Line
}

// Add returns a cart with one more of item. A new item is appended
// after the existing lines.
func (c Cart) Add(item models.MenuItem) Cart {
	lines := make([]Line, len(c.lines), len(c.lines)+1)
	copy(lines, c.lines)

	if i := c.indexOf(item.ID); i >= 0 {
		lines[i].Quantity++
		return Cart{lines: lines}
	}

	return Cart{lines: append(lines, Line{Item: item, Quantity: 1})}
}

// Remove returns a cart with one fewer of the item. A line reaching zero
// is dropped. Removing an item not in the cart is a no-op.
func (c Cart) Remove(menuItemID int64) Cart {
	i := c.indexOf(menuItemID)
	if i < 0 {
		return c
	}

	if c.lines[i].Quantity > 1 {
		lines := make([]Line, len(c.lines))
		copy(lines, c.lines)
		lines[i].Quantity--
		return Cart{lines: lines}
	}

	lines := make([]Line, 0, len(c.lines)-1)
	lines = append(lines, c.lines[:i]...)
	lines = append(lines, c.lines[i+1:]...)
	return Cart{lines: lines}
}

// QuantityOf returns the quantity of an item, or 0 if absent
func (c Cart) QuantityOf(menuItemID int64) int {
	if i := c.indexOf(menuItemID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Total returns the sum of price x quantity over all lines
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount returns the sum of quantities
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Len returns the number of distinct items
func (c Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order
func (c Cart) Lines() []Line {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	return lines
}

// ToOrderLines converts the cart into order lines priced at the current
// menu price
func (c Cart) ToOrderLines() []models.OrderLine {
	out := make([]models.OrderLine, len(c.lines))
	for i, l := range c.lines {
		out[i] = models.OrderLine{
			MenuItemID: l.Item.ID,
			Name:       l.Item.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.Item.Price,
		}
	}
	return out
}

// ToLineRequests converts the cart into quantities for submission
func (c Cart) ToLineRequests() []models.LineRequest {
	out := make([]models.LineRequest, len(c.lines))
	for i, l := range c.lines {
		out[i] = models.LineRequest{MenuItemID: l.Item.ID, Quantity: l.Quantity}
	}
	return out
}

func (c Cart) indexOf(menuItemID int64) int {
	for i, l := range c.lines {
		if l.Item.ID == menuItemID {
			return i
		}
	}
	return -1
}
