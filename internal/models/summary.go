package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ItemSales is the quantity and revenue sold for one menu item
type ItemSales struct {
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Summary aggregates the figures shown on the admin panel
type Summary struct {
	TotalOrders     int             `json:"totalOrders"`
	ActiveOrders    int             `json:"activeOrders"`
	PreparingOrders int             `json:"preparingOrders"`
	ServedOrders    int             `json:"servedOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
	Revenue         decimal.Decimal `json:"revenue"`
	TotalTables     int             `json:"totalTables"`
	AvailableTables int             `json:"availableTables"`
	OccupiedTables  int             `json:"occupiedTables"`
	ReservedTables  int             `json:"reservedTables"`
	TopItems        []ItemSales     `json:"topItems"`
}

// Summarize computes admin figures from table and order snapshots.
// Cancelled orders are counted but excluded from revenue and item sales.
func Summarize(tables []Table, orders []Order, topN int) Summary {
	s := Summary{
		TotalOrders: len(orders),
		TotalTables: len(tables),
		Revenue:     decimal.Zero,
		TopItems:    []ItemSales{},
	}

	for _, t := range tables {
		switch t.Status {
		case TableAvailable:
			s.AvailableTables++
		case TableOccupied:
			s.OccupiedTables++
		case TableReserved:
			s.ReservedTables++
		}
	}

	sales := make(map[int64]*ItemSales)
	for _, o := range orders {
		switch o.Status {
		case OrderActive:
			s.ActiveOrders++
		case OrderPreparing:
			s.PreparingOrders++
		case OrderServed:
			s.ServedOrders++
		case OrderCancelled:
			s.CancelledOrders++
			continue
		}

		s.Revenue = s.Revenue.Add(o.Total)
		for _, l := range o.Lines {
			item, ok := sales[l.MenuItemID]
			if !ok {
				item = &ItemSales{MenuItemID: l.MenuItemID, Name: l.Name, Revenue: decimal.Zero}
				sales[l.MenuItemID] = item
			}
			item.Quantity += l.Quantity
			item.Revenue = item.Revenue.Add(l.Subtotal())
		}
	}

	for _, item := range sales {
		s.TopItems = append(s.TopItems, *item)
	}
	sort.Slice(s.TopItems, func(i, j int) bool {
		if s.TopItems[i].Quantity != s.TopItems[j].Quantity {
			return s.TopItems[i].Quantity > s.TopItems[j].Quantity
		}
		return s.TopItems[i].MenuItemID < s.TopItems[j].MenuItemID
	})
	if topN > 0 && len(s.TopItems) > topN {
		s.TopItems = s.TopItems[:topN]
	}

	return s
}

// SortNewestFirst orders by creation time descending
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
