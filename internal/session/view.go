package session

import (
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/shopspring/decimal"
)

// View is the payload rendered for the current screen
type View struct {
	Screen         Screen           `json:"screen"`
	Identity       *models.Identity `json:"identity,omitempty"`
	CanToggleAdmin bool             `json:"canToggleAdmin"`
	Dashboard      *DashboardView   `json:"dashboard,omitempty"`
	OrderEntry     *OrderEntryView  `json:"orderEntry,omitempty"`
	Admin          *AdminView       `json:"admin,omitempty"`
	Notice         string           `json:"notice,omitempty"`
}

// DashboardView lists tables with occupancy counts
type DashboardView struct {
	Tables    []models.Table `json:"tables"`
	Available int            `json:"available"`
	Occupied  int            `json:"occupied"`
	Reserved  int            `json:"reserved"`
	Total     int            `json:"total"`
}

// OrderEntryView shows the menu by category and the cart for one table
type OrderEntryView struct {
	TableID int                   `json:"tableId"`
	Menu    []models.MenuCategory `json:"menu"`
	Cart    CartView              `json:"cart"`
}

// CartView is the cart with per-line subtotals
type CartView struct {
	Lines     []CartLineView  `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// CartLineView is one cart line
type CartLineView struct {
	models.OrderLine
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AdminView shows order history, staff accounts and figures
type AdminView struct {
	Orders  []models.Order `json:"orders"`
	Users   []models.User  `json:"users"`
	Summary models.Summary `json:"summary"`
}

// Render projects the state onto the payload for its screen
func Render(s State) View {
	v := View{Screen: s.Screen}
	if !s.LoggedIn() {
		return v
	}

	identity := *s.Identity
	v.Identity = &identity
	v.CanToggleAdmin = Can(identity.Role, CapAdminPanel)

	switch s.Screen {
	case ScreenDashboard:
		v.Dashboard = renderDashboard(s.Data.Tables)
	case ScreenOrderEntry:
		v.OrderEntry = renderOrderEntry(s)
	case ScreenAdmin:
		v.Admin = renderAdmin(s.Data)
	}
	return v
}

func renderDashboard(tables []models.Table) *DashboardView {
	d := &DashboardView{Tables: append([]models.Table{}, tables...), Total: len(tables)}
	for _, t := range tables {
		switch t.Status {
		case models.TableAvailable:
			d.Available++
		case models.TableOccupied:
			d.Occupied++
		case models.TableReserved:
			d.Reserved++
		}
	}
	return d
}

func renderOrderEntry(s State) *OrderEntryView {
	lines := s.Cart.ToOrderLines()
	cv := CartView{
		Lines:     make([]CartLineView, len(lines)),
		ItemCount: s.Cart.ItemCount(),
		Total:     s.Cart.Total(),
	}
	for i, l := range lines {
		cv.Lines[i] = CartLineView{OrderLine: l, Subtotal: l.Subtotal()}
	}

	return &OrderEntryView{
		TableID: s.TableID,
		Menu:    models.GroupByCategory(s.Data.Menu),
		Cart:    cv,
	}
}

func renderAdmin(data Snapshot) *AdminView {
	orders := append([]models.Order{}, data.Orders...)
	models.SortNewestFirst(orders)

	return &AdminView{
		Orders:  orders,
		Users:   append([]models.User{}, data.Users...),
		Summary: models.Summarize(data.Tables, data.Orders, 5),
	}
}
