package service

import (
	"context"
	"log/slog"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
)

// MenuService handles business logic for the menu
type MenuService struct {
	repo      repository.MenuRepository
	publisher notify.Publisher
	logger    *slog.Logger
}

// NewMenuService creates a new menu service
func NewMenuService(repo repository.MenuRepository, publisher notify.Publisher, logger *slog.Logger) *MenuService {
	return &MenuService{repo: repo, publisher: publisher, logger: logger}
}

// ListMenu returns all available items
func (s *MenuService) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	return s.repo.ListAvailable(ctx)
}

// GetMenuItem returns an item by ID, available or not
func (s *MenuService) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.repo.GetByID(ctx, id)
}

// Import inserts or updates items, typically from a seed file
func (s *MenuService) Import(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.repo.Upsert(ctx, items); err != nil {
		return err
	}

	s.logger.Info("menu imported", "items", len(items))
	announce(ctx, s.publisher, s.logger, notify.NewChange(notify.EntityMenu, ""))
	return nil
}
