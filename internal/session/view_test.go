package session

import (
	"testing"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

func TestRender_LoggedOut(t *testing.T) {
	v := Render(Initial())
	if v.Screen != ScreenLoggedOut || v.Identity != nil || v.Dashboard != nil {
		t.Errorf("unexpected logged-out view: %+v", v)
	}
}

func TestRender_Dashboard(t *testing.T) {
	v := Render(loggedIn(t, waiter))

	if v.Dashboard == nil {
		t.Fatal("expected dashboard payload")
	}
	if v.Dashboard.Total != 4 || v.Dashboard.Available != 2 || v.Dashboard.Occupied != 1 || v.Dashboard.Reserved != 1 {
		t.Errorf("unexpected counts: %+v", v.Dashboard)
	}
	if v.CanToggleAdmin {
		t.Error("waiter should not see the admin toggle")
	}
}

func TestRender_OrderEntry(t *testing.T) {
	s := mustTransition(t, loggedIn(t, waiter), SelectTable{TableID: 3})
	s = mustTransition(t, s, AddItem{MenuItemID: 7})
	s = mustTransition(t, s, AddItem{MenuItemID: 1})
	s = mustTransition(t, s, AddItem{MenuItemID: 1})

	v := Render(s)

	if v.OrderEntry == nil || v.OrderEntry.TableID != 3 {
		t.Fatalf("expected order entry for table 3, got %+v", v.OrderEntry)
	}
	if len(v.OrderEntry.Menu) != 2 || v.OrderEntry.Menu[0].Name != "Pizza" {
		t.Errorf("expected menu grouped as Pizza, Beverages; got %+v", v.OrderEntry.Menu)
	}

	c := v.OrderEntry.Cart
	if c.ItemCount != 3 || len(c.Lines) != 2 {
		t.Errorf("expected 3 items on 2 lines, got %d on %d", c.ItemCount, len(c.Lines))
	}
	if c.Lines[0].MenuItemID != 7 {
		t.Errorf("expected coffee first by insertion, got %d", c.Lines[0].MenuItemID)
	}
	if !c.Lines[1].Subtotal.Equal(decimal.RequireFromString("25.98")) {
		t.Errorf("expected pizza subtotal 25.98, got %s", c.Lines[1].Subtotal)
	}
	if !c.Total.Equal(decimal.RequireFromString("29.97")) {
		t.Errorf("expected total 29.97, got %s", c.Total)
	}
}

func TestRender_AdminOrdersNewestFirst(t *testing.T) {
	s := loggedIn(t, admin)
	now := time.Now()
	line := models.OrderLine{MenuItemID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("12.99")}
	s = mustTransition(t, s, Refreshed{Scope: ScopeOrders, Data: Snapshot{Orders: []models.Order{
		{ID: "older", CreatedAt: now.Add(-time.Hour), Status: models.OrderServed, Lines: []models.OrderLine{line}, Total: line.Subtotal()},
		{ID: "newer", CreatedAt: now, Status: models.OrderActive, Lines: []models.OrderLine{line}, Total: line.Subtotal()},
	}}})

	v := Render(s)

	if v.Admin == nil || len(v.Admin.Orders) != 2 {
		t.Fatalf("expected admin view with 2 orders, got %+v", v.Admin)
	}
	if v.Admin.Orders[0].ID != "newer" {
		t.Errorf("expected newest order first, got %s", v.Admin.Orders[0].ID)
	}
	if v.Admin.Summary.ActiveOrders != 1 || !v.Admin.Summary.Revenue.Equal(decimal.RequireFromString("25.98")) {
		t.Errorf("unexpected summary: %+v", v.Admin.Summary)
	}
	if !v.CanToggleAdmin {
		t.Error("admin should see the admin toggle")
	}
}
