package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMaxConcurrentOrders    = 20
	defaultAveragePrepTimeMinutes = 30

	// Each order ahead in the queue adds this delay to the estimate.
	queueDelayPerOrderMinutes = 10
)

// Kitchen prepares orders for a single sales channel. MaxConcurrentOrders is
// advisory capacity; it is not enforced as a hard admission limit.
type Kitchen struct {
	ID                     uuid.UUID
	Name                   string
	ChannelID              uuid.UUID
	IsActive               bool
	MaxConcurrentOrders    int
	AveragePrepTimeMinutes int
	// Sequence is assigned by the repository at insert and gives a
	// deterministic ordering among kitchens of the same channel.
	Sequence  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewKitchen creates a validated kitchen with default capacity settings.
func NewKitchen(name string, channelID uuid.UUID, now time.Time) (*Kitchen, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "kitchen name is required")
	}
	if channelID == uuid.Nil {
		return nil, NewValidationError("channel", "channel is required")
	}

	return &Kitchen{
		ID:                     uuid.New(),
		Name:                   name,
		ChannelID:              channelID,
		IsActive:               true,
		MaxConcurrentOrders:    defaultMaxConcurrentOrders,
		AveragePrepTimeMinutes: defaultAveragePrepTimeMinutes,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// PrepTime returns the kitchen's baseline preparation duration.
func (k *Kitchen) PrepTime() time.Duration {
	return time.Duration(k.AveragePrepTimeMinutes) * time.Minute
}

// KitchenPatch enumerates the mutable kitchen fields.
type KitchenPatch struct {
	Name                   *string
	IsActive               *bool
	MaxConcurrentOrders    *int
	AveragePrepTimeMinutes *int
}

func (k *Kitchen) ApplyPatch(patch KitchenPatch, now time.Time) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return NewValidationError("name", "kitchen name is required")
	}
	if patch.MaxConcurrentOrders != nil && *patch.MaxConcurrentOrders <= 0 {
		return NewValidationError("max_concurrent_orders", "max concurrent orders must be greater than zero")
	}
	if patch.AveragePrepTimeMinutes != nil && *patch.AveragePrepTimeMinutes <= 0 {
		return NewValidationError("average_prep_time_minutes", "average prep time must be greater than zero")
	}

	if patch.Name != nil {
		k.Name = *patch.Name
	}
	if patch.IsActive != nil {
		k.IsActive = *patch.IsActive
	}
	if patch.MaxConcurrentOrders != nil {
		k.MaxConcurrentOrders = *patch.MaxConcurrentOrders
	}
	if patch.AveragePrepTimeMinutes != nil {
		k.AveragePrepTimeMinutes = *patch.AveragePrepTimeMinutes
	}
	k.UpdatedAt = now
	return nil
}

func (k *Kitchen) Clone() *Kitchen {
	c := *k
	return &c
}

type KitchenOrderStatus string

const (
	KitchenOrderReceived  KitchenOrderStatus = "received"
	KitchenOrderPreparing KitchenOrderStatus = "preparing"
	KitchenOrderReady     KitchenOrderStatus = "ready"
	KitchenOrderDelivered KitchenOrderStatus = "delivered"
	KitchenOrderCancelled KitchenOrderStatus = "cancelled"
)

// KitchenOrderStatuses lists the valid statuses in declaration order.
var KitchenOrderStatuses = []KitchenOrderStatus{
	KitchenOrderReceived,
	KitchenOrderPreparing,
	KitchenOrderReady,
	KitchenOrderDelivered,
	KitchenOrderCancelled,
}

// ParseKitchenOrderStatus validates a raw status string.
func ParseKitchenOrderStatus(raw string) (KitchenOrderStatus, error) {
	for _, s := range KitchenOrderStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	names := make([]string, len(KitchenOrderStatuses))
	for i, s := range KitchenOrderStatuses {
		names[i] = string(s)
	}
	return "", NewValidationError("status",
		fmt.Sprintf("invalid status %q, valid options: %s", raw, strings.Join(names, ", ")))
}

// KitchenOrder tracks a single external order inside a kitchen. At most one
// KitchenOrder exists per external order.
type KitchenOrder struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	KitchenID           uuid.UUID
	Status              KitchenOrderStatus
	EstimatedCompletion time.Time
	ActualCompletion    *time.Time
	SpecialInstructions string
	// Sequence disambiguates queue positions of orders created at the
	// same instant.
	Sequence  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewKitchenOrder creates an order in the received state with its initial
// estimate derived from the kitchen's average prep time.
func NewKitchenOrder(orderID uuid.UUID, kitchen *Kitchen, specialInstructions string, now time.Time) (*KitchenOrder, error) {
	if orderID == uuid.Nil {
		return nil, NewValidationError("order", "order is required")
	}

	return &KitchenOrder{
		ID:                  uuid.New(),
		OrderID:             orderID,
		KitchenID:           kitchen.ID,
		Status:              KitchenOrderReceived,
		EstimatedCompletion: now.Add(kitchen.PrepTime()),
		SpecialInstructions: specialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// IsActive reports whether the order still occupies the kitchen queue.
func (o *KitchenOrder) IsActive() bool {
	return o.Status == KitchenOrderReceived || o.Status == KitchenOrderPreparing
}

// TransitionTo moves the order to a new status. Entering ready or delivered
// latches ActualCompletion: once set it is never overwritten, including on a
// later ready-to-delivered transition.
func (o *KitchenOrder) TransitionTo(status KitchenOrderStatus, now time.Time) {
	o.Status = status
	o.UpdatedAt = now

	if (status == KitchenOrderReady || status == KitchenOrderDelivered) && o.ActualCompletion == nil {
		completed := now
		o.ActualCompletion = &completed
	}
}

// QueueEstimate computes the completion estimate for an order with the given
// number of active orders ahead of it in the same kitchen.
func QueueEstimate(createdAt time.Time, avgPrepMinutes, ordersAhead int) time.Time {
	prep := time.Duration(avgPrepMinutes) * time.Minute
	delay := time.Duration(ordersAhead*queueDelayPerOrderMinutes) * time.Minute
	return createdAt.Add(prep + delay)
}

func (o *KitchenOrder) Clone() *KitchenOrder {
	c := *o
	if o.ActualCompletion != nil {
		t := *o.ActualCompletion
		c.ActualCompletion = &t
	}
	return &c
}

// KitchenPerformance summarizes completed work for one kitchen over a
// reporting period.
type KitchenPerformance struct {
	KitchenID                uuid.UUID
	KitchenName              string
	From                     time.Time
	To                       time.Time
	TotalOrders              int
	DeliveredOrders          int
	CompletionRate           float64
	AvgCompletionTimeMinutes float64
}
