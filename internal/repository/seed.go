package repository

import (
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultTableCount is the number of tables seeded into an empty store
const DefaultTableCount = 16

// DefaultMenu returns the menu seeded into an empty store
func DefaultMenu() []models.MenuItem {
	return []models.MenuItem{
		{ID: 1, Name: "Margherita Pizza", Price: decimal.RequireFromString("12.99"), Category: "Pizza", Available: true},
		{ID: 2, Name: "Caesar Salad", Price: decimal.RequireFromString("8.99"), Category: "Salads", Available: true},
		{ID: 3, Name: "Grilled Chicken", Price: decimal.RequireFromString("15.99"), Category: "Mains", Available: true},
		{ID: 4, Name: "Fish & Chips", Price: decimal.RequireFromString("14.99"), Category: "Mains", Available: true},
		{ID: 5, Name: "Pasta Carbonara", Price: decimal.RequireFromString("13.99"), Category: "Pasta", Available: true},
		{ID: 6, Name: "Chocolate Cake", Price: decimal.RequireFromString("6.99"), Category: "Desserts", Available: true},
		{ID: 7, Name: "Coffee", Price: decimal.RequireFromString("3.99"), Category: "Beverages", Available: true},
		{ID: 8, Name: "Orange Juice", Price: decimal.RequireFromString("4.99"), Category: "Beverages", Available: true},
	}
}

// seatCountFor gives small tables by the window and larger ones at the back
func seatCountFor(id int) int {
	switch {
	case id <= 6:
		return 2
	case id <= 12:
		return 4
	default:
		return 6
	}
}
