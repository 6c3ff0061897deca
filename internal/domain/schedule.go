package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledOrder is an external order booked for future delivery or pickup.
// Invariant, enforced on create and update: window start < window end, and
// the scheduled instant lies inside the window.
type ScheduledOrder struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	ScheduledTime       time.Time
	DeliveryWindowStart time.Time
	DeliveryWindowEnd   time.Time
	DeliveryAddress     string
	SpecialInstructions string
	IsPickup            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func validateScheduleWindow(scheduledTime, windowStart, windowEnd, now time.Time) error {
	if !scheduledTime.After(now) {
		return NewValidationError("scheduled_time", "scheduled time must be in the future")
	}
	if !windowStart.Before(windowEnd) {
		return NewValidationError("delivery_window_start", "delivery window start must be before end time")
	}
	if scheduledTime.Before(windowStart) || scheduledTime.After(windowEnd) {
		return NewValidationError("scheduled_time", "scheduled time must be within the delivery window")
	}
	return nil
}

// NewScheduledOrder creates a validated scheduled order.
func NewScheduledOrder(orderID uuid.UUID, scheduledTime, windowStart, windowEnd time.Time, address, instructions string, isPickup bool, now time.Time) (*ScheduledOrder, error) {
	if orderID == uuid.Nil {
		return nil, NewValidationError("order", "order is required")
	}
	if err := validateScheduleWindow(scheduledTime, windowStart, windowEnd, now); err != nil {
		return nil, err
	}
	if !windowStart.After(now) {
		return nil, NewValidationError("delivery_window_start", "delivery window start must be in the future")
	}

	return &ScheduledOrder{
		ID:                  uuid.New(),
		OrderID:             orderID,
		ScheduledTime:       scheduledTime,
		DeliveryWindowStart: windowStart,
		DeliveryWindowEnd:   windowEnd,
		DeliveryAddress:     address,
		SpecialInstructions: instructions,
		IsPickup:            isPickup,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// ScheduledOrderPatch enumerates the mutable scheduled-order fields.
type ScheduledOrderPatch struct {
	ScheduledTime       *time.Time
	DeliveryWindowStart *time.Time
	DeliveryWindowEnd   *time.Time
	DeliveryAddress     *string
	SpecialInstructions *string
	IsPickup            *bool
}

// ApplyPatch re-validates the combined scheduled time and window after
// merging the supplied fields with the current values.
func (s *ScheduledOrder) ApplyPatch(patch ScheduledOrderPatch, now time.Time) error {
	scheduledTime := s.ScheduledTime
	windowStart := s.DeliveryWindowStart
	windowEnd := s.DeliveryWindowEnd
	if patch.ScheduledTime != nil {
		scheduledTime = *patch.ScheduledTime
	}
	if patch.DeliveryWindowStart != nil {
		windowStart = *patch.DeliveryWindowStart
	}
	if patch.DeliveryWindowEnd != nil {
		windowEnd = *patch.DeliveryWindowEnd
	}

	if err := validateScheduleWindow(scheduledTime, windowStart, windowEnd, now); err != nil {
		return err
	}

	s.ScheduledTime = scheduledTime
	s.DeliveryWindowStart = windowStart
	s.DeliveryWindowEnd = windowEnd
	if patch.DeliveryAddress != nil {
		s.DeliveryAddress = *patch.DeliveryAddress
	}
	if patch.SpecialInstructions != nil {
		s.SpecialInstructions = *patch.SpecialInstructions
	}
	if patch.IsPickup != nil {
		s.IsPickup = *patch.IsPickup
	}
	s.UpdatedAt = now
	return nil
}

// ChangeDeliveryWindow moves the window without touching the scheduled
// instant. If the existing scheduled time falls outside the new window the
// caller must update the scheduled time first; the window is never
// auto-adjusted to fit.
func (s *ScheduledOrder) ChangeDeliveryWindow(windowStart, windowEnd, now time.Time) error {
	if !windowStart.Before(windowEnd) {
		return NewValidationError("delivery_window_start", "delivery window start must be before end time")
	}
	if !windowStart.After(now) {
		return NewValidationError("delivery_window_start", "delivery window start must be in the future")
	}
	if s.ScheduledTime.Before(windowStart) || s.ScheduledTime.After(windowEnd) {
		return NewValidationError("delivery_window_start",
			"scheduled time must be within the new delivery window, update the scheduled time first")
	}

	s.DeliveryWindowStart = windowStart
	s.DeliveryWindowEnd = windowEnd
	s.UpdatedAt = now
	return nil
}

func (s *ScheduledOrder) Clone() *ScheduledOrder {
	c := *s
	return &c
}
