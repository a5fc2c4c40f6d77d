// Package notify carries change notifications for shared collections.
// Receivers react by refetching the named collection.
package notify

import (
	"context"
	"time"
)

// Entity names a shared collection
type Entity string

const (
	EntityTables Entity = "tables"
	EntityOrders Entity = "orders"
	EntityUsers  Entity = "users"
	EntityMenu   Entity = "menu"
)

// Change signals that a collection was modified
type Change struct {
	Entity Entity    `json:"entity"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

// NewChange stamps a change with the current time
func NewChange(entity Entity, id string) Change {
	return Change{Entity: entity, ID: id, At: time.Now().UTC()}
}

// Publisher broadcasts changes
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}
