package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestKitchen(t *testing.T) *Kitchen {
	t.Helper()
	kitchen, err := NewKitchen("Downtown Kitchen", uuid.New(), testNow)
	if err != nil {
		t.Fatalf("Failed to create kitchen: %v", err)
	}
	return kitchen
}

func TestNewKitchen_Defaults(t *testing.T) {
	kitchen := newTestKitchen(t)

	if kitchen.MaxConcurrentOrders != 20 {
		t.Errorf("Expected default max concurrent orders 20, got %d", kitchen.MaxConcurrentOrders)
	}
	if kitchen.AveragePrepTimeMinutes != 30 {
		t.Errorf("Expected default prep time 30, got %d", kitchen.AveragePrepTimeMinutes)
	}
	if !kitchen.IsActive {
		t.Error("Expected new kitchen to be active")
	}
}

func TestNewKitchen_Validation(t *testing.T) {
	if _, err := NewKitchen("   ", uuid.New(), testNow); err == nil {
		t.Error("Expected blank name to be rejected")
	}
	if _, err := NewKitchen("Kitchen", uuid.Nil, testNow); err == nil {
		t.Error("Expected nil channel to be rejected")
	}
}

func TestParseKitchenOrderStatus(t *testing.T) {
	for _, s := range KitchenOrderStatuses {
		parsed, err := ParseKitchenOrderStatus(string(s))
		if err != nil {
			t.Errorf("Expected %q to parse, got error: %v", s, err)
		}
		if parsed != s {
			t.Errorf("Expected %q, got %q", s, parsed)
		}
	}

	_, err := ParseKitchenOrderStatus("burnt")
	if err == nil {
		t.Fatal("Expected invalid status to be rejected")
	}
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if vErr.Field != "status" {
		t.Errorf("Expected field status, got %q", vErr.Field)
	}
}

func TestNewKitchenOrder_InitialEstimate(t *testing.T) {
	kitchen := newTestKitchen(t)
	kitchen.AveragePrepTimeMinutes = 25

	order, err := NewKitchenOrder(uuid.New(), kitchen, "no onions", testNow)
	if err != nil {
		t.Fatalf("Failed to create kitchen order: %v", err)
	}

	if order.Status != KitchenOrderReceived {
		t.Errorf("Expected received status, got %q", order.Status)
	}
	want := testNow.Add(25 * time.Minute)
	if !order.EstimatedCompletion.Equal(want) {
		t.Errorf("Expected estimate %v, got %v", want, order.EstimatedCompletion)
	}
	if order.ActualCompletion != nil {
		t.Error("Expected no actual completion on a new order")
	}
}

func TestTransitionTo_CompletionLatch(t *testing.T) {
	kitchen := newTestKitchen(t)
	order, err := NewKitchenOrder(uuid.New(), kitchen, "", testNow)
	if err != nil {
		t.Fatalf("Failed to create kitchen order: %v", err)
	}

	order.TransitionTo(KitchenOrderPreparing, testNow.Add(5*time.Minute))
	if order.ActualCompletion != nil {
		t.Fatal("Preparing must not set actual completion")
	}

	readyAt := testNow.Add(20 * time.Minute)
	order.TransitionTo(KitchenOrderReady, readyAt)
	if order.ActualCompletion == nil || !order.ActualCompletion.Equal(readyAt) {
		t.Fatalf("Expected actual completion %v, got %v", readyAt, order.ActualCompletion)
	}

	// Delivered later must not overwrite the latched timestamp.
	order.TransitionTo(KitchenOrderDelivered, testNow.Add(40*time.Minute))
	if !order.ActualCompletion.Equal(readyAt) {
		t.Errorf("Actual completion was overwritten: %v", order.ActualCompletion)
	}
}

func TestQueueEstimate(t *testing.T) {
	tests := []struct {
		name        string
		prepMinutes int
		ordersAhead int
		wantMinutes int
	}{
		{name: "empty_queue", prepMinutes: 30, ordersAhead: 0, wantMinutes: 30},
		{name: "three_ahead", prepMinutes: 30, ordersAhead: 3, wantMinutes: 60},
		{name: "custom_prep_time", prepMinutes: 15, ordersAhead: 2, wantMinutes: 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueueEstimate(testNow, tt.prepMinutes, tt.ordersAhead)
			want := testNow.Add(time.Duration(tt.wantMinutes) * time.Minute)
			if !got.Equal(want) {
				t.Errorf("Expected %v, got %v", want, got)
			}
		})
	}
}

func TestKitchenOrder_IsActive(t *testing.T) {
	kitchen := newTestKitchen(t)
	order, _ := NewKitchenOrder(uuid.New(), kitchen, "", testNow)

	active := map[KitchenOrderStatus]bool{
		KitchenOrderReceived:  true,
		KitchenOrderPreparing: true,
		KitchenOrderReady:     false,
		KitchenOrderDelivered: false,
		KitchenOrderCancelled: false,
	}
	for status, want := range active {
		order.Status = status
		if order.IsActive() != want {
			t.Errorf("Status %q: expected IsActive=%v", status, want)
		}
	}
}
