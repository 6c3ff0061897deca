package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

const (
	defaultDispatchLead = 30 * time.Minute
	defaultCleanupAge   = 30 * 24 * time.Hour
)

// Service owns kitchens, routes external orders into them, and keeps their
// completion-time estimates current.
type Service struct {
	kitchens     interfaces.KitchenRepository
	orders       interfaces.KitchenOrderRepository
	scheduled    interfaces.ScheduledOrderRepository
	gateway      interfaces.OrderGateway
	logger       logger.Logger
	dispatchLead time.Duration
	cleanupAge   time.Duration
	now          func() time.Time
}

var _ interfaces.KitchenService = (*Service)(nil)

func NewService(
	kitchens interfaces.KitchenRepository,
	orders interfaces.KitchenOrderRepository,
	scheduled interfaces.ScheduledOrderRepository,
	gateway interfaces.OrderGateway,
	lgr logger.Logger,
) *Service {
	return &Service{
		kitchens:     kitchens,
		orders:       orders,
		scheduled:    scheduled,
		gateway:      gateway,
		logger:       lgr,
		dispatchLead: defaultDispatchLead,
		cleanupAge:   defaultCleanupAge,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithDispatchLead sets how far ahead of its scheduled time an order
// becomes eligible for kitchen dispatch.
func (s *Service) WithDispatchLead(lead time.Duration) *Service {
	s.dispatchLead = lead
	return s
}

// WithCleanupAge sets how old a completed order must be before cleanup
// removes it.
func (s *Service) WithCleanupAge(age time.Duration) *Service {
	s.cleanupAge = age
	return s
}

func (s *Service) CreateKitchen(ctx context.Context, cmd interfaces.CreateKitchenCommand) (*domain.Kitchen, error) {
	now := s.now()

	kitchen, err := domain.NewKitchen(cmd.Name, cmd.ChannelID, now)
	if err != nil {
		return nil, err
	}
	patch := domain.KitchenPatch{
		MaxConcurrentOrders:    cmd.MaxConcurrentOrders,
		AveragePrepTimeMinutes: cmd.AveragePrepTimeMinutes,
		IsActive:               cmd.IsActive,
	}
	if err := kitchen.ApplyPatch(patch, now); err != nil {
		return nil, err
	}

	if err := s.kitchens.Create(ctx, kitchen); err != nil {
		return nil, err
	}

	s.logger.Debug("kitchen_created", "Kitchen created", "", map[string]interface{}{
		"kitchen_id": kitchen.ID.String(),
		"name":       kitchen.Name,
	})
	return kitchen, nil
}

func (s *Service) UpdateKitchen(ctx context.Context, id uuid.UUID, patch domain.KitchenPatch) (*domain.Kitchen, error) {
	kitchen, err := s.kitchens.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := kitchen.ApplyPatch(patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.kitchens.Update(ctx, kitchen); err != nil {
		return nil, err
	}
	return kitchen, nil
}

// AssignOrderToKitchen creates the KitchenOrder for an external order. The
// one-order-one-assignment invariant is enforced by the repository at
// insert, which closes the race between the existence check and the create.
func (s *Service) AssignOrderToKitchen(ctx context.Context, cmd interfaces.AssignOrderCommand) (*domain.KitchenOrder, error) {
	order, err := s.gateway.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	kitchen, err := s.kitchens.FindByID(ctx, cmd.KitchenID)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.FindByOrderID(ctx, order.ID); err == nil {
		return nil, domain.NewValidationError("order", "order is already assigned to a kitchen")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	kitchenOrder, err := domain.NewKitchenOrder(order.ID, kitchen, cmd.SpecialInstructions, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, kitchenOrder); err != nil {
		return nil, err
	}

	s.logger.Info("order_assigned", fmt.Sprintf("Order %s assigned to kitchen %s", order.Number, kitchen.Name), "",
		map[string]interface{}{
			"order_id":   order.ID.String(),
			"kitchen_id": kitchen.ID.String(),
		})
	return kitchenOrder, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, specialInstructions *string) (*domain.KitchenOrder, error) {
	parsed, err := domain.ParseKitchenOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	order.TransitionTo(parsed, s.now())
	if specialInstructions != nil {
		order.SpecialInstructions = *specialInstructions
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Debug("kitchen_order_status_updated", "Kitchen order status updated", "", map[string]interface{}{
		"kitchen_order_id": order.ID.String(),
		"status":           string(order.Status),
	})
	return order, nil
}

// RecomputeEstimates refreshes the completion estimate of every active
// order from its kitchen's prep time and current queue depth. Queue
// position is the order's index in (created_at, sequence) order within its
// kitchen, so identical creation times still count deterministically.
// Returns how many estimates changed.
func (s *Service) RecomputeEstimates(ctx context.Context, asOf time.Time) (int, error) {
	active, err := s.orders.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active kitchen orders: %w", err)
	}

	prepTimes := make(map[uuid.UUID]int)
	queuePos := make(map[uuid.UUID]int)
	updated := 0

	for _, order := range active {
		prep, ok := prepTimes[order.KitchenID]
		if !ok {
			kitchen, err := s.kitchens.FindByID(ctx, order.KitchenID)
			if err != nil {
				return updated, err
			}
			prep = kitchen.AveragePrepTimeMinutes
			prepTimes[order.KitchenID] = prep
		}

		ordersAhead := queuePos[order.KitchenID]
		queuePos[order.KitchenID]++

		estimate := domain.QueueEstimate(order.CreatedAt, prep, ordersAhead)
		if estimate.Equal(order.EstimatedCompletion) {
			continue
		}

		order.EstimatedCompletion = estimate
		order.UpdatedAt = asOf
		if err := s.orders.Update(ctx, order); err != nil {
			return updated, err
		}
		updated++
	}

	s.logger.Info("estimates_recomputed", fmt.Sprintf("Updated estimates for %d kitchen orders", updated), "",
		map[string]interface{}{"active_orders": len(active), "updated_count": updated})
	return updated, nil
}

// DispatchScheduledOrders assigns confirmed scheduled orders entering their
// lead window to the first active kitchen of their channel. Orders without
// an active kitchen are skipped and logged, not failed.
func (s *Service) DispatchScheduledOrders(ctx context.Context, now time.Time) (int, error) {
	due, err := s.scheduled.ListDueBetween(ctx, now, now.Add(s.dispatchLead))
	if err != nil {
		return 0, fmt.Errorf("failed to list due scheduled orders: %w", err)
	}

	dispatched := 0
	for _, sched := range due {
		order, err := s.gateway.FindByID(ctx, sched.OrderID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return dispatched, err
		}
		if order.Status != interfaces.OrderStatusConfirmed {
			continue
		}

		if _, err := s.orders.FindByOrderID(ctx, order.ID); err == nil {
			continue
		} else if !domain.IsNotFound(err) {
			return dispatched, err
		}

		kitchens, err := s.kitchens.ListActiveByChannel(ctx, order.ChannelID)
		if err != nil {
			return dispatched, err
		}
		if len(kitchens) == 0 {
			s.logger.Warn("no_kitchen_available",
				fmt.Sprintf("No active kitchen for scheduled order %s", order.Number), "",
				map[string]interface{}{"order_id": order.ID.String(), "channel_id": order.ChannelID.String()})
			continue
		}
		kitchen := kitchens[0]

		instructions := fmt.Sprintf("Scheduled for %s", sched.ScheduledTime.Format(time.RFC3339))
		kitchenOrder, err := domain.NewKitchenOrder(order.ID, kitchen, instructions, now)
		if err != nil {
			return dispatched, err
		}
		if err := s.orders.Create(ctx, kitchenOrder); err != nil {
			// Lost the race to a concurrent assignment; not an error.
			if domain.IsValidation(err) {
				continue
			}
			return dispatched, err
		}

		dispatched++
		s.logger.Info("scheduled_order_dispatched",
			fmt.Sprintf("Assigned scheduled order %s to kitchen %s", order.Number, kitchen.Name), "",
			map[string]interface{}{"order_id": order.ID.String(), "kitchen_id": kitchen.ID.String()})
	}

	return dispatched, nil
}

// CleanupOldOrders removes delivered and cancelled orders past the
// retention age.
func (s *Service) CleanupOldOrders(ctx context.Context, asOf time.Time) (int, error) {
	cutoff := asOf.Add(-s.cleanupAge)
	count, err := s.orders.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up kitchen orders: %w", err)
	}

	if count > 0 {
		s.logger.Info("kitchen_orders_cleaned", fmt.Sprintf("Cleaned up %d old kitchen orders", count), "",
			map[string]interface{}{"deleted_count": count})
	}
	return count, nil
}

// PerformanceReport summarizes one kitchen's throughput over a period.
func (s *Service) PerformanceReport(ctx context.Context, kitchenID uuid.UUID, from, to time.Time) (*domain.KitchenPerformance, error) {
	kitchen, err := s.kitchens.FindByID(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByKitchenBetween(ctx, kitchenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list kitchen orders: %w", err)
	}

	report := &domain.KitchenPerformance{
		KitchenID:   kitchen.ID,
		KitchenName: kitchen.Name,
		From:        from,
		To:          to,
		TotalOrders: len(orders),
	}

	var totalMinutes float64
	var timed int
	for _, order := range orders {
		if order.Status != domain.KitchenOrderDelivered {
			continue
		}
		report.DeliveredOrders++
		if order.ActualCompletion != nil {
			totalMinutes += order.ActualCompletion.Sub(order.CreatedAt).Minutes()
			timed++
		}
	}

	if report.TotalOrders > 0 {
		report.CompletionRate = float64(report.DeliveredOrders) / float64(report.TotalOrders) * 100
	}
	if timed > 0 {
		report.AvgCompletionTimeMinutes = totalMinutes / float64(timed)
	}

	return report, nil
}
