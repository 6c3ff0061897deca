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

type KitchenRepository struct {
	mu       sync.RWMutex
	kitchens map[uuid.UUID]*domain.Kitchen
	nextSeq  int64
}

var _ interfaces.KitchenRepository = (*KitchenRepository)(nil)

func NewKitchenRepository() *KitchenRepository {
	return &KitchenRepository{kitchens: make(map[uuid.UUID]*domain.Kitchen)}
}

func (r *KitchenRepository) Create(ctx context.Context, kitchen *domain.Kitchen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	kitchen.Sequence = r.nextSeq
	r.kitchens[kitchen.ID] = kitchen.Clone()
	return nil
}

func (r *KitchenRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Kitchen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kitchen, ok := r.kitchens[id]
	if !ok {
		return nil, domain.NewNotFoundError("kitchen", id.String())
	}
	return kitchen.Clone(), nil
}

func (r *KitchenRepository) Update(ctx context.Context, kitchen *domain.Kitchen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.kitchens[kitchen.ID]; !ok {
		return domain.NewNotFoundError("kitchen", kitchen.ID.String())
	}
	r.kitchens[kitchen.ID] = kitchen.Clone()
	return nil
}

func (r *KitchenRepository) ListAll(ctx context.Context) ([]*domain.Kitchen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kitchens []*domain.Kitchen
	for _, k := range r.kitchens {
		kitchens = append(kitchens, k.Clone())
	}
	sort.Slice(kitchens, func(i, j int) bool { return kitchens[i].Sequence < kitchens[j].Sequence })
	return kitchens, nil
}

func (r *KitchenRepository) ListActiveByChannel(ctx context.Context, channelID uuid.UUID) ([]*domain.Kitchen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kitchens []*domain.Kitchen
	for _, k := range r.kitchens {
		if k.IsActive && k.ChannelID == channelID {
			kitchens = append(kitchens, k.Clone())
		}
	}
	sort.Slice(kitchens, func(i, j int) bool { return kitchens[i].Sequence < kitchens[j].Sequence })
	return kitchens, nil
}

type KitchenOrderRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*domain.KitchenOrder
	byOrder map[uuid.UUID]uuid.UUID
	nextSeq int64
}

var _ interfaces.KitchenOrderRepository = (*KitchenOrderRepository)(nil)

func NewKitchenOrderRepository() *KitchenOrderRepository {
	return &KitchenOrderRepository{
		orders:  make(map[uuid.UUID]*domain.KitchenOrder),
		byOrder: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *KitchenOrderRepository) Create(ctx context.Context, order *domain.KitchenOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[order.OrderID]; exists {
		return domain.NewValidationError("order", "order is already assigned to a kitchen")
	}

	r.nextSeq++
	order.Sequence = r.nextSeq
	r.orders[order.ID] = order.Clone()
	r.byOrder[order.OrderID] = order.ID
	return nil
}

func (r *KitchenOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.KitchenOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("kitchen order", id.String())
	}
	return order.Clone(), nil
}

func (r *KitchenOrderRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.KitchenOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.NewNotFoundError("kitchen order", "for order "+orderID.String())
	}
	return r.orders[id].Clone(), nil
}

func (r *KitchenOrderRepository) Update(ctx context.Context, order *domain.KitchenOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.NewNotFoundError("kitchen order", order.ID.String())
	}
	order.Sequence = stored.Sequence
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *KitchenOrderRepository) ListActive(ctx context.Context) ([]*domain.KitchenOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.KitchenOrder
	for _, o := range r.orders {
		if o.IsActive() {
			orders = append(orders, o.Clone())
		}
	}
	sortQueue(orders)
	return orders, nil
}

func (r *KitchenOrderRepository) ListByKitchenBetween(ctx context.Context, kitchenID uuid.UUID, from, to time.Time) ([]*domain.KitchenOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.KitchenOrder
	for _, o := range r.orders {
		if o.KitchenID == kitchenID && !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			orders = append(orders, o.Clone())
		}
	}
	sortQueue(orders)
	return orders, nil
}

func (r *KitchenOrderRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, o := range r.orders {
		if (o.Status == domain.KitchenOrderDelivered || o.Status == domain.KitchenOrderCancelled) && o.UpdatedAt.Before(cutoff) {
			delete(r.orders, id)
			delete(r.byOrder, o.OrderID)
			count++
		}
	}
	return count, nil
}

// sortQueue orders kitchen orders by (created_at, sequence) so queue
// positions are deterministic even for identical creation times.
func sortQueue(orders []*domain.KitchenOrder) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].Sequence < orders[j].Sequence
	})
}
