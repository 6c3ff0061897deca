package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type ScheduledOrderRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*domain.ScheduledOrder
	byOrder map[uuid.UUID]uuid.UUID
}

var _ interfaces.ScheduledOrderRepository = (*ScheduledOrderRepository)(nil)

func NewScheduledOrderRepository() *ScheduledOrderRepository {
	return &ScheduledOrderRepository{
		orders:  make(map[uuid.UUID]*domain.ScheduledOrder),
		byOrder: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *ScheduledOrderRepository) Create(ctx context.Context, order *domain.ScheduledOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[order.OrderID]; exists {
		return domain.NewValidationError("order", "order is already scheduled")
	}

	r.orders[order.ID] = order.Clone()
	r.byOrder[order.OrderID] = order.ID
	return nil
}

func (r *ScheduledOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("scheduled order", id.String())
	}
	return order.Clone(), nil
}

func (r *ScheduledOrderRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.ScheduledOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.NewNotFoundError("scheduled order", "for order "+orderID.String())
	}
	return r.orders[id].Clone(), nil
}

func (r *ScheduledOrderRepository) Update(ctx context.Context, order *domain.ScheduledOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return domain.NewNotFoundError("scheduled order", order.ID.String())
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *ScheduledOrderRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.ScheduledOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*domain.ScheduledOrder
	for _, o := range r.orders {
		if !o.ScheduledTime.Before(from) && !o.ScheduledTime.After(to) {
			due = append(due, o.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledTime.Before(due[j].ScheduledTime) })
	return due, nil
}

// OrderGateway is a fixture standing in for the platform's order store.
type OrderGateway struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*interfaces.ExternalOrder
}

var _ interfaces.OrderGateway = (*OrderGateway)(nil)

func NewOrderGateway() *OrderGateway {
	return &OrderGateway{orders: make(map[uuid.UUID]*interfaces.ExternalOrder)}
}

func (g *OrderGateway) Put(order *interfaces.ExternalOrder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copied := *order
	g.orders[order.ID] = &copied
}

func (g *OrderGateway) FindByID(ctx context.Context, id uuid.UUID) (*interfaces.ExternalOrder, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	order, ok := g.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id.String())
	}
	copied := *order
	return &copied, nil
}
