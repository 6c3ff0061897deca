package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestScheduledOrder(t *testing.T) *ScheduledOrder {
	t.Helper()
	order, err := NewScheduledOrder(
		uuid.New(),
		testNow.Add(3*time.Hour),
		testNow.Add(2*time.Hour),
		testNow.Add(4*time.Hour),
		"12 Main St", "", false, testNow,
	)
	if err != nil {
		t.Fatalf("Failed to create scheduled order: %v", err)
	}
	return order
}

func TestNewScheduledOrder_Validation(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name          string
		scheduledTime time.Time
		windowStart   time.Time
		windowEnd     time.Time
		wantField     string
	}{
		{
			name:          "scheduled_time_in_past",
			scheduledTime: testNow.Add(-time.Hour),
			windowStart:   testNow.Add(-2 * time.Hour),
			windowEnd:     testNow.Add(time.Hour),
			wantField:     "scheduled_time",
		},
		{
			name:          "window_start_after_end",
			scheduledTime: testNow.Add(3 * time.Hour),
			windowStart:   testNow.Add(4 * time.Hour),
			windowEnd:     testNow.Add(2 * time.Hour),
			wantField:     "delivery_window_start",
		},
		{
			name:          "scheduled_time_outside_window",
			scheduledTime: testNow.Add(5 * time.Hour),
			windowStart:   testNow.Add(2 * time.Hour),
			windowEnd:     testNow.Add(4 * time.Hour),
			wantField:     "scheduled_time",
		},
		{
			name:          "window_start_in_past",
			scheduledTime: testNow.Add(time.Hour),
			windowStart:   testNow.Add(-time.Hour),
			windowEnd:     testNow.Add(2 * time.Hour),
			wantField:     "delivery_window_start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduledOrder(orderID, tt.scheduledTime, tt.windowStart, tt.windowEnd, "", "", false, testNow)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, vErr.Field)
			}
		})
	}
}

func TestScheduledOrder_WindowBoundariesInclusive(t *testing.T) {
	start := testNow.Add(2 * time.Hour)
	end := testNow.Add(4 * time.Hour)

	if _, err := NewScheduledOrder(uuid.New(), start, start, end, "", "", false, testNow); err != nil {
		t.Errorf("Scheduled time at window start must be accepted: %v", err)
	}
	if _, err := NewScheduledOrder(uuid.New(), end, start, end, "", "", false, testNow); err != nil {
		t.Errorf("Scheduled time at window end must be accepted: %v", err)
	}
}

func TestScheduledOrder_ApplyPatch_RevalidatesMergedState(t *testing.T) {
	order := newTestScheduledOrder(t)

	// Moving only the window end before the scheduled time must fail even
	// though the end alone is a valid future instant.
	badEnd := testNow.Add(150 * time.Minute)
	err := order.ApplyPatch(ScheduledOrderPatch{DeliveryWindowEnd: &badEnd}, testNow)
	if err == nil {
		t.Fatal("Expected merged window validation to fail")
	}

	// Moving the scheduled time together with the window succeeds.
	newTime := testNow.Add(6 * time.Hour)
	newStart := testNow.Add(5 * time.Hour)
	newEnd := testNow.Add(7 * time.Hour)
	err = order.ApplyPatch(ScheduledOrderPatch{
		ScheduledTime:       &newTime,
		DeliveryWindowStart: &newStart,
		DeliveryWindowEnd:   &newEnd,
	}, testNow)
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if !order.ScheduledTime.Equal(newTime) {
		t.Errorf("Expected scheduled time %v, got %v", newTime, order.ScheduledTime)
	}
}

func TestChangeDeliveryWindow(t *testing.T) {
	order := newTestScheduledOrder(t)

	// New window that excludes the scheduled time is rejected; the
	// scheduled time is never auto-adjusted.
	err := order.ChangeDeliveryWindow(testNow.Add(5*time.Hour), testNow.Add(6*time.Hour), testNow)
	if err == nil {
		t.Fatal("Expected window excluding scheduled time to be rejected")
	}
	if !strings.Contains(err.Error(), "update the scheduled time first") {
		t.Errorf("Unexpected error message: %v", err)
	}

	// Widening the window around the scheduled time succeeds.
	newStart := testNow.Add(time.Hour)
	newEnd := testNow.Add(5 * time.Hour)
	if err := order.ChangeDeliveryWindow(newStart, newEnd, testNow); err != nil {
		t.Fatalf("ChangeDeliveryWindow failed: %v", err)
	}
	if !order.DeliveryWindowStart.Equal(newStart) || !order.DeliveryWindowEnd.Equal(newEnd) {
		t.Error("Window was not updated")
	}
}
