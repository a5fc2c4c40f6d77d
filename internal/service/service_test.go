package service

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/Lixing-Zhang/restaurant-pos/pkg/logger"
)

// recordingPublisher captures published changes
type recordingPublisher struct {
	mu      sync.Mutex
	changes []notify.Change
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, c notify.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

func (p *recordingPublisher) entities() []notify.Entity {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.Entity, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Entity
	}
	return out
}

func newOrderService() (*OrderService, *repository.MemoryStore, *recordingPublisher) {
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewOrderService(store.Orders(), store.Menu(), pub, logger.New("error"))
	return svc, store, pub
}

// interleavedTables runs afterGet once, right after the first Get returns
type interleavedTables struct {
	repository.TableRepository
	once     sync.Once
	afterGet func()
}

func (r *interleavedTables) Get(ctx context.Context, id int) (*models.Table, error) {
	t, err := r.TableRepository.Get(ctx, id)
	r.once.Do(r.afterGet)
	return t, err
}

// interleavedOrders runs afterGet once, right after the first Get returns
type interleavedOrders struct {
	repository.OrderRepository
	once     sync.Once
	afterGet func()
}

func (r *interleavedOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := r.OrderRepository.Get(ctx, id)
	r.once.Do(r.afterGet)
	return o, err
}
