package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foodops/localfood/internal/domain"
)

// Commands carried from the transport layer into the services.

type CreateBatchCommand struct {
	VariantID    uuid.UUID
	WarehouseID  uuid.UUID
	BatchNumber  string
	ExpiryDate   time.Time
	Quantity     int
	SupplierInfo string
}

type AssignOrderCommand struct {
	OrderID             uuid.UUID
	KitchenID           uuid.UUID
	SpecialInstructions string
}

type CreateKitchenCommand struct {
	Name                   string
	ChannelID              uuid.UUID
	MaxConcurrentOrders    *int
	AveragePrepTimeMinutes *int
	IsActive               *bool
}

type CreateScheduledOrderCommand struct {
	OrderID             uuid.UUID
	ScheduledTime       time.Time
	DeliveryWindowStart time.Time
	DeliveryWindowEnd   time.Time
	DeliveryAddress     string
	SpecialInstructions string
	IsPickup            bool
}

type CreateTimeSlotCommand struct {
	VariantID   uuid.UUID
	ChannelID   uuid.UUID
	Weekday     int
	StartMinute int
	EndMinute   int
}

type CreateDeliveryZoneCommand struct {
	Name                     string
	ChannelID                uuid.UUID
	DeliveryFee              decimal.Decimal
	MinimumOrderValue        decimal.Decimal
	EstimatedDeliveryMinutes *int
	PostalCodes              string
}

// StockService is the perishable-stock reservation and lifecycle engine.
type StockService interface {
	CreateBatch(ctx context.Context, cmd CreateBatchCommand) (*domain.PerishableBatch, error)
	UpdateBatch(ctx context.Context, id uuid.UUID, patch domain.BatchPatch) (*domain.PerishableBatch, error)
	Reserve(ctx context.Context, id uuid.UUID, amount int) (*domain.PerishableBatch, error)
	Release(ctx context.Context, id uuid.UUID, amount int) (*domain.PerishableBatch, error)
	MarkExpired(ctx context.Context, id uuid.UUID) (*domain.PerishableBatch, error)
	SweepExpired(ctx context.Context, asOf time.Time) (int, error)
	ListExpiringWithin(ctx context.Context, days int, warehouseID *uuid.UUID) ([]*domain.PerishableBatch, error)
	RecommendFIFOPriority(ctx context.Context) ([]*domain.FIFORecommendation, error)
	CheckExpiringStock(ctx context.Context, asOf time.Time, daysAhead int) (int, error)
}

// KitchenService owns kitchen records, order routing, and the queue
// estimator.
type KitchenService interface {
	CreateKitchen(ctx context.Context, cmd CreateKitchenCommand) (*domain.Kitchen, error)
	UpdateKitchen(ctx context.Context, id uuid.UUID, patch domain.KitchenPatch) (*domain.Kitchen, error)
	AssignOrderToKitchen(ctx context.Context, cmd AssignOrderCommand) (*domain.KitchenOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, specialInstructions *string) (*domain.KitchenOrder, error)
	RecomputeEstimates(ctx context.Context, asOf time.Time) (int, error)
	DispatchScheduledOrders(ctx context.Context, now time.Time) (int, error)
	CleanupOldOrders(ctx context.Context, asOf time.Time) (int, error)
	PerformanceReport(ctx context.Context, kitchenID uuid.UUID, from, to time.Time) (*domain.KitchenPerformance, error)
}

// SchedulingService validates scheduled orders and delivery-zone coverage.
type SchedulingService interface {
	CreateScheduledOrder(ctx context.Context, cmd CreateScheduledOrderCommand) (*domain.ScheduledOrder, error)
	UpdateScheduledOrder(ctx context.Context, id uuid.UUID, patch domain.ScheduledOrderPatch) (*domain.ScheduledOrder, error)
	UpdateDeliveryWindow(ctx context.Context, id uuid.UUID, windowStart, windowEnd time.Time) (*domain.ScheduledOrder, error)
	CreateDeliveryZone(ctx context.Context, cmd CreateDeliveryZoneCommand) (*domain.DeliveryZone, error)
	UpdateDeliveryZone(ctx context.Context, id uuid.UUID, patch domain.DeliveryZonePatch) (*domain.DeliveryZone, error)
	// FindZoneForPostalCode returns the first active zone of the channel
	// covering the code, or nil when none does.
	FindZoneForPostalCode(ctx context.Context, channelID uuid.UUID, postalCode string) (*domain.DeliveryZone, error)
}

// MenuService is the time-based menu availability clock.
type MenuService interface {
	CreateTimeSlot(ctx context.Context, cmd CreateTimeSlotCommand) (*domain.MenuTimeSlot, error)
	UpdateTimeSlot(ctx context.Context, id uuid.UUID, patch domain.MenuTimeSlotPatch) (*domain.MenuTimeSlot, error)
	// IsAvailableAt reports whether any slot makes the offering servable
	// at the given instant.
	IsAvailableAt(ctx context.Context, variantID, channelID uuid.UUID, at time.Time) (bool, error)
}
