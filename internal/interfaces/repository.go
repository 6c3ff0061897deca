package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
)

// BatchRepository owns perishable-stock batch records. Create must enforce
// the (variant, warehouse, batch_number) uniqueness; Apply must execute the
// mutation as an atomic read-modify-write scoped to the one batch so that
// concurrent reservations never jointly overreserve.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.PerishableBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PerishableBatch, error)
	ExistsBatchNumber(ctx context.Context, variantID, warehouseID uuid.UUID, batchNumber string) (bool, error)
	Apply(ctx context.Context, id uuid.UUID, mutate func(*domain.PerishableBatch) error) (*domain.PerishableBatch, error)
	// ListExpiring returns available batches with expiry_date <= byDate,
	// optionally filtered by warehouse, ordered by (expiry_date,
	// received_date) ascending.
	ListExpiring(ctx context.Context, byDate time.Time, warehouseID *uuid.UUID) ([]*domain.PerishableBatch, error)
	// ListAvailable returns all available batches in FIFO order
	// (expiry_date, then received_date).
	ListAvailable(ctx context.Context) ([]*domain.PerishableBatch, error)
	// MarkExpiredBefore flips every available batch with expiry_date
	// strictly before asOf to unavailable and returns the count.
	MarkExpiredBefore(ctx context.Context, asOf time.Time) (int, error)
}

type KitchenRepository interface {
	Create(ctx context.Context, kitchen *domain.Kitchen) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Kitchen, error)
	Update(ctx context.Context, kitchen *domain.Kitchen) error
	ListAll(ctx context.Context) ([]*domain.Kitchen, error)
	// ListActiveByChannel returns active kitchens ordered by insertion
	// sequence; dispatch picks the first.
	ListActiveByChannel(ctx context.Context, channelID uuid.UUID) ([]*domain.Kitchen, error)
}

// KitchenOrderRepository enforces the one-KitchenOrder-per-order invariant
// at insert and assigns the monotonic sequence used for queue tie-breaks.
type KitchenOrderRepository interface {
	Create(ctx context.Context, order *domain.KitchenOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.KitchenOrder, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.KitchenOrder, error)
	Update(ctx context.Context, order *domain.KitchenOrder) error
	// ListActive returns orders in received or preparing status, ordered
	// by (created_at, sequence) ascending.
	ListActive(ctx context.Context) ([]*domain.KitchenOrder, error)
	ListByKitchenBetween(ctx context.Context, kitchenID uuid.UUID, from, to time.Time) ([]*domain.KitchenOrder, error)
	// DeleteCompletedBefore removes delivered and cancelled orders not
	// updated since the cutoff and returns the count.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type ScheduledOrderRepository interface {
	Create(ctx context.Context, order *domain.ScheduledOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledOrder, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.ScheduledOrder, error)
	Update(ctx context.Context, order *domain.ScheduledOrder) error
	// ListDueBetween returns orders with scheduled_time in [from, to].
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.ScheduledOrder, error)
}

// MenuTimeSlotRepository enforces the (variant, channel, weekday,
// start_time) uniqueness at insert.
type MenuTimeSlotRepository interface {
	Create(ctx context.Context, slot *domain.MenuTimeSlot) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.MenuTimeSlot, error)
	Update(ctx context.Context, slot *domain.MenuTimeSlot) error
	ListByVariantChannel(ctx context.Context, variantID, channelID uuid.UUID) ([]*domain.MenuTimeSlot, error)
}

type DeliveryZoneRepository interface {
	Create(ctx context.Context, zone *domain.DeliveryZone) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryZone, error)
	Update(ctx context.Context, zone *domain.DeliveryZone) error
	ListActiveByChannel(ctx context.Context, channelID uuid.UUID) ([]*domain.DeliveryZone, error)
}

// ExternalOrder is the slice of the platform's order entity this module
// reads: identity, number, lifecycle status, and owning channel.
type ExternalOrder struct {
	ID        uuid.UUID
	Number    string
	Status    string
	ChannelID uuid.UUID
}

// OrderStatusConfirmed is the only external status eligible for scheduled
// dispatch.
const OrderStatusConfirmed = "confirmed"

// OrderGateway resolves external order references. The order store itself
// belongs to the surrounding platform.
type OrderGateway interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ExternalOrder, error)
}
