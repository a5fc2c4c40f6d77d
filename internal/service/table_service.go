package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
)

// TableService handles table status changes outside of order placement
type TableService struct {
	tables    repository.TableRepository
	publisher notify.Publisher
	logger    *slog.Logger
}

// NewTableService creates a new table service
func NewTableService(tables repository.TableRepository, publisher notify.Publisher, logger *slog.Logger) *TableService {
	return &TableService{tables: tables, publisher: publisher, logger: logger}
}

// ListTables returns all tables ordered by ID
func (s *TableService) ListTables(ctx context.Context) ([]models.Table, error) {
	return s.tables.List(ctx)
}

// Reserve holds an available table
func (s *TableService) Reserve(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.TableAvailable, models.TableReserved)
}

// Unreserve frees a reserved table
func (s *TableService) Unreserve(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.TableReserved, models.TableAvailable)
}

// Release frees an occupied table once its guests have left
func (s *TableService) Release(ctx context.Context, id int) error {
	return s.transition(ctx, id, models.TableOccupied, models.TableAvailable)
}

func (s *TableService) transition(ctx context.Context, id int, from, to models.TableStatus) error {
	table, err := s.tables.Get(ctx, id)
	if err != nil {
		return err
	}
	if table.Status != from || !from.CanTransition(to) {
		return fmt.Errorf("%w: table %d is %s", ErrInvalidTransition, id, table.Status)
	}

	err = s.tables.UpdateStatusFrom(ctx, id, from, to)
	if errors.Is(err, repository.ErrStatusChanged) {
		return fmt.Errorf("%w: table %d changed while updating", ErrInvalidTransition, id)
	}
	if err != nil {
		return fmt.Errorf("update table %d: %w", id, err)
	}

	s.logger.Info("table status changed", "table_id", id, "from", from, "to", to)
	announce(ctx, s.publisher, s.logger, notify.NewChange(notify.EntityTables, strconv.Itoa(id)))
	return nil
}
