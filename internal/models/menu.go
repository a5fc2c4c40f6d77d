package models

import "github.com/shopspring/decimal"

// MenuItem represents a dish that can be added to an order
type MenuItem struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Available bool            `json:"available"`
}

// MenuCategory groups menu items sharing a category
type MenuCategory struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// GroupByCategory groups items by category, keeping the order in which
// categories are first seen.
func GroupByCategory(items []MenuItem) []MenuCategory {
	index := make(map[string]int)
	groups := make([]MenuCategory, 0)

	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, MenuCategory{Name: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}

// FindMenuItem returns the item with the given ID from a loaded menu
func FindMenuItem(items []MenuItem, id int64) (MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}
