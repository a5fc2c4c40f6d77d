package models

import "time"

// TableStatus is the occupancy state of a restaurant table
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

var tableTransitions = map[TableStatus][]TableStatus{
	TableAvailable: {TableOccupied, TableReserved},
	TableReserved:  {TableAvailable},
	TableOccupied:  {TableAvailable},
}

// Valid reports whether s is a known table status
func (s TableStatus) Valid() bool {
	_, ok := tableTransitions[s]
	return ok
}

// CanTransition reports whether a table may move from s to next
func (s TableStatus) CanTransition(next TableStatus) bool {
	for _, allowed := range tableTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Table represents a physical table in the dining room
type Table struct {
	ID        int         `json:"id"`
	Status    TableStatus `json:"status"`
	SeatCount int         `json:"seatCount"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Selectable reports whether an order may be started for the table
func (t Table) Selectable() bool {
	return t.Status == TableAvailable
}

// FindTable returns the table with the given ID from a loaded snapshot
func FindTable(tables []Table, id int) (Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}
