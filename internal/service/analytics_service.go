package service

import (
	"context"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
)

// topItemsLimit caps the best sellers reported in a summary
const topItemsLimit = 5

// AnalyticsService computes admin figures from current data
type AnalyticsService struct {
	tables repository.TableRepository
	orders repository.OrderRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(tables repository.TableRepository, orders repository.OrderRepository) *AnalyticsService {
	return &AnalyticsService{tables: tables, orders: orders}
}

// Summary fetches tables and orders and aggregates them
func (s *AnalyticsService) Summary(ctx context.Context) (models.Summary, error) {
	tables, err := s.tables.List(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(tables, orders, topItemsLimit), nil
}
