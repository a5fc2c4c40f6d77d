package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
)

var (
	ErrInvalidItem       = errors.New("menu item is not available")
	ErrInvalidQuantity   = errors.New("quantity must be positive and within order limits")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrInvalidTransition = errors.New("status transition is not allowed")
	ErrOrderLocked       = errors.New("order can no longer be edited")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidStatus     = errors.New("invalid status")
)

// announce publishes changes after a successful write. A failed publish is
// logged and not returned: the write has already committed.
func announce(ctx context.Context, publisher notify.Publisher, logger *slog.Logger, changes ...notify.Change) {
	if publisher == nil {
		return
	}
	for _, c := range changes {
		if err := publisher.Publish(ctx, c); err != nil {
			logger.Warn("failed to publish change", "entity", c.Entity, "id", c.ID, "error", err)
		}
	}
}
