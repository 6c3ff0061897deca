package kitchen

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/adapter/memory"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *Service
	kitchens  *memory.KitchenRepository
	orders    *memory.KitchenOrderRepository
	scheduled *memory.ScheduledOrderRepository
	gateway   *memory.OrderGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		kitchens:  memory.NewKitchenRepository(),
		orders:    memory.NewKitchenOrderRepository(),
		scheduled: memory.NewScheduledOrderRepository(),
		gateway:   memory.NewOrderGateway(),
	}
	env.svc = NewService(env.kitchens, env.orders, env.scheduled, env.gateway, logger.Noop()).
		WithClock(func() time.Time { return testNow })
	return env
}

func (e *testEnv) addKitchen(t *testing.T, channelID uuid.UUID, prepMinutes int) *domain.Kitchen {
	t.Helper()
	prep := prepMinutes
	kitchen, err := e.svc.CreateKitchen(context.Background(), interfaces.CreateKitchenCommand{
		Name:                   "Kitchen",
		ChannelID:              channelID,
		AveragePrepTimeMinutes: &prep,
	})
	if err != nil {
		t.Fatalf("Failed to create kitchen: %v", err)
	}
	return kitchen
}

func (e *testEnv) addExternalOrder(status string, channelID uuid.UUID) *interfaces.ExternalOrder {
	order := &interfaces.ExternalOrder{
		ID:        uuid.New(),
		Number:    "ORD-1001",
		Status:    status,
		ChannelID: channelID,
	}
	e.gateway.Put(order)
	return order
}

func TestAssignOrderToKitchen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 25)
	order := env.addExternalOrder("confirmed", channelID)

	assigned, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{
		OrderID:   order.ID,
		KitchenID: kitchen.ID,
	})
	if err != nil {
		t.Fatalf("AssignOrderToKitchen failed: %v", err)
	}

	if assigned.Status != domain.KitchenOrderReceived {
		t.Errorf("Expected received status, got %q", assigned.Status)
	}
	want := testNow.Add(25 * time.Minute)
	if !assigned.EstimatedCompletion.Equal(want) {
		t.Errorf("Expected estimate %v, got %v", want, assigned.EstimatedCompletion)
	}

	// The same external order cannot be assigned twice.
	_, err = env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{
		OrderID:   order.ID,
		KitchenID: kitchen.ID,
	})
	if !domain.IsValidation(err) {
		t.Fatalf("Expected validation error on double assignment, got %v", err)
	}
}

func TestAssignOrderToKitchen_UnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 30)
	order := env.addExternalOrder("confirmed", channelID)

	_, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{
		OrderID:   uuid.New(),
		KitchenID: kitchen.ID,
	})
	if !domain.IsNotFound(err) {
		t.Errorf("Expected not-found for unknown order, got %v", err)
	}

	_, err = env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{
		OrderID:   order.ID,
		KitchenID: uuid.New(),
	})
	if !domain.IsNotFound(err) {
		t.Errorf("Expected not-found for unknown kitchen, got %v", err)
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UpdateStatus(context.Background(), uuid.New(), "burnt", nil)
	if !domain.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "valid options") {
		t.Errorf("Expected error to list valid options, got %q", err.Error())
	}
}

func TestUpdateStatus_CompletionLatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 30)
	order := env.addExternalOrder("confirmed", channelID)

	assigned, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{
		OrderID:   order.ID,
		KitchenID: kitchen.ID,
	})
	if err != nil {
		t.Fatalf("AssignOrderToKitchen failed: %v", err)
	}

	updated, err := env.svc.UpdateStatus(ctx, assigned.ID, "ready", nil)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.ActualCompletion == nil || !updated.ActualCompletion.Equal(testNow) {
		t.Fatalf("Expected actual completion to latch at %v, got %v", testNow, updated.ActualCompletion)
	}

	updated, err = env.svc.UpdateStatus(ctx, assigned.ID, "delivered", nil)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if !updated.ActualCompletion.Equal(testNow) {
		t.Errorf("Delivered must not overwrite the latched completion, got %v", updated.ActualCompletion)
	}
}

func TestRecomputeEstimates_QueuePositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 30)

	// Three orders created at the same instant: sequence breaks the tie.
	var assigned []*domain.KitchenOrder
	for i := 0; i < 3; i++ {
		order := env.addExternalOrder("confirmed", channelID)
		ko, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{
			OrderID:   order.ID,
			KitchenID: kitchen.ID,
		})
		if err != nil {
			t.Fatalf("AssignOrderToKitchen failed: %v", err)
		}
		assigned = append(assigned, ko)
	}

	updated, err := env.svc.RecomputeEstimates(ctx, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("RecomputeEstimates failed: %v", err)
	}
	// The first order's estimate already equals created_at + prep.
	if updated != 2 {
		t.Fatalf("Expected 2 changed estimates, got %d", updated)
	}

	wantMinutes := []int{30, 40, 50}
	for i, ko := range assigned {
		stored, err := env.orders.FindByID(ctx, ko.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		want := stored.CreatedAt.Add(time.Duration(wantMinutes[i]) * time.Minute)
		if !stored.EstimatedCompletion.Equal(want) {
			t.Errorf("Order %d: expected estimate %v, got %v", i, want, stored.EstimatedCompletion)
		}
	}
}

func TestRecomputeEstimates_SkipsInactiveOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 30)

	first := env.addExternalOrder("confirmed", channelID)
	ko, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{OrderID: first.ID, KitchenID: kitchen.ID})
	if err != nil {
		t.Fatalf("AssignOrderToKitchen failed: %v", err)
	}
	if _, err := env.svc.UpdateStatus(ctx, ko.ID, "delivered", nil); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	second := env.addExternalOrder("confirmed", channelID)
	if _, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{OrderID: second.ID, KitchenID: kitchen.ID}); err != nil {
		t.Fatalf("AssignOrderToKitchen failed: %v", err)
	}

	// The delivered order no longer occupies a queue slot, so the active
	// order sits at position zero and keeps its original estimate.
	updated, err := env.svc.RecomputeEstimates(ctx, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("RecomputeEstimates failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("Expected no estimate changes, got %d", updated)
	}
}

func createScheduled(t *testing.T, env *testEnv, orderID uuid.UUID, inMinutes int) *domain.ScheduledOrder {
	t.Helper()
	sched, err := domain.NewScheduledOrder(
		orderID,
		testNow.Add(time.Duration(inMinutes)*time.Minute),
		testNow.Add(time.Duration(inMinutes-15)*time.Minute),
		testNow.Add(time.Duration(inMinutes+15)*time.Minute),
		"", "", false, testNow,
	)
	if err != nil {
		t.Fatalf("Failed to create scheduled order: %v", err)
	}
	if err := env.scheduled.Create(context.Background(), sched); err != nil {
		t.Fatalf("Failed to store scheduled order: %v", err)
	}
	return sched
}

func TestDispatchScheduledOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	env.addKitchen(t, channelID, 30)

	dueConfirmed := env.addExternalOrder("confirmed", channelID)
	createScheduled(t, env, dueConfirmed.ID, 20)

	dueUnpaid := env.addExternalOrder("unconfirmed", channelID)
	createScheduled(t, env, dueUnpaid.ID, 20)

	farOut := env.addExternalOrder("confirmed", channelID)
	createScheduled(t, env, farOut.ID, 120)

	dispatched, err := env.svc.DispatchScheduledOrders(ctx, testNow)
	if err != nil {
		t.Fatalf("DispatchScheduledOrders failed: %v", err)
	}
	if dispatched != 1 {
		t.Fatalf("Expected 1 dispatched order, got %d", dispatched)
	}

	ko, err := env.orders.FindByOrderID(ctx, dueConfirmed.ID)
	if err != nil {
		t.Fatalf("Dispatched order not found: %v", err)
	}
	if !strings.HasPrefix(ko.SpecialInstructions, "Scheduled for ") {
		t.Errorf("Expected scheduling note in instructions, got %q", ko.SpecialInstructions)
	}

	if _, err := env.orders.FindByOrderID(ctx, dueUnpaid.ID); !domain.IsNotFound(err) {
		t.Error("Unconfirmed order must not be dispatched")
	}
	if _, err := env.orders.FindByOrderID(ctx, farOut.ID); !domain.IsNotFound(err) {
		t.Error("Order outside the lead window must not be dispatched")
	}

	// A second run sees the existing assignment and dispatches nothing.
	dispatched, err = env.svc.DispatchScheduledOrders(ctx, testNow)
	if err != nil {
		t.Fatalf("Second DispatchScheduledOrders failed: %v", err)
	}
	if dispatched != 0 {
		t.Errorf("Expected idempotent dispatch, got %d", dispatched)
	}
}

func TestDispatchScheduledOrders_NoActiveKitchen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	order := env.addExternalOrder("confirmed", channelID)
	createScheduled(t, env, order.ID, 20)

	dispatched, err := env.svc.DispatchScheduledOrders(ctx, testNow)
	if err != nil {
		t.Fatalf("Missing kitchen must not fail the run: %v", err)
	}
	if dispatched != 0 {
		t.Errorf("Expected 0 dispatched, got %d", dispatched)
	}
}

func TestCleanupOldOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 30)

	oldDelivered := env.addExternalOrder("confirmed", channelID)
	ko, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{OrderID: oldDelivered.ID, KitchenID: kitchen.ID})
	if err != nil {
		t.Fatalf("AssignOrderToKitchen failed: %v", err)
	}
	if _, err := env.svc.UpdateStatus(ctx, ko.ID, "delivered", nil); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	activeOrder := env.addExternalOrder("confirmed", channelID)
	if _, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{OrderID: activeOrder.ID, KitchenID: kitchen.ID}); err != nil {
		t.Fatalf("AssignOrderToKitchen failed: %v", err)
	}

	// 40 days later the delivered order is past the 30-day retention.
	count, err := env.svc.CleanupOldOrders(ctx, testNow.AddDate(0, 0, 40))
	if err != nil {
		t.Fatalf("CleanupOldOrders failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 order cleaned, got %d", count)
	}

	if _, err := env.orders.FindByOrderID(ctx, activeOrder.ID); err != nil {
		t.Error("Active order must survive cleanup")
	}
	if _, err := env.orders.FindByOrderID(ctx, oldDelivered.ID); !domain.IsNotFound(err) {
		t.Error("Old delivered order must be removed")
	}
}

func TestPerformanceReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	channelID := uuid.New()
	kitchen := env.addKitchen(t, channelID, 30)

	statuses := []string{"delivered", "delivered", "cancelled", "preparing"}
	for _, status := range statuses {
		order := env.addExternalOrder("confirmed", channelID)
		ko, err := env.svc.AssignOrderToKitchen(ctx, interfaces.AssignOrderCommand{OrderID: order.ID, KitchenID: kitchen.ID})
		if err != nil {
			t.Fatalf("AssignOrderToKitchen failed: %v", err)
		}
		if status != "received" {
			if _, err := env.svc.UpdateStatus(ctx, ko.ID, status, nil); err != nil {
				t.Fatalf("UpdateStatus failed: %v", err)
			}
		}
	}

	report, err := env.svc.PerformanceReport(ctx, kitchen.ID, testNow.Add(-time.Hour), testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("PerformanceReport failed: %v", err)
	}

	if report.TotalOrders != 4 {
		t.Errorf("Expected 4 total orders, got %d", report.TotalOrders)
	}
	if report.DeliveredOrders != 2 {
		t.Errorf("Expected 2 delivered orders, got %d", report.DeliveredOrders)
	}
	if report.CompletionRate != 50 {
		t.Errorf("Expected 50%% completion rate, got %v", report.CompletionRate)
	}
}

func TestPerformanceReport_UnknownKitchen(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.PerformanceReport(context.Background(), uuid.New(), testNow, testNow.Add(time.Hour))
	if !domain.IsNotFound(err) {
		t.Errorf("Expected not-found, got %v", err)
	}
}
