package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

// Service validates scheduled orders and answers delivery-zone coverage
// lookups.
type Service struct {
	scheduled interfaces.ScheduledOrderRepository
	zones     interfaces.DeliveryZoneRepository
	gateway   interfaces.OrderGateway
	logger    logger.Logger
	now       func() time.Time
}

var _ interfaces.SchedulingService = (*Service)(nil)

func NewService(
	scheduled interfaces.ScheduledOrderRepository,
	zones interfaces.DeliveryZoneRepository,
	gateway interfaces.OrderGateway,
	lgr logger.Logger,
) *Service {
	return &Service{
		scheduled: scheduled,
		zones:     zones,
		gateway:   gateway,
		logger:    lgr,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateScheduledOrder(ctx context.Context, cmd interfaces.CreateScheduledOrderCommand) (*domain.ScheduledOrder, error) {
	order, err := s.gateway.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.scheduled.FindByOrderID(ctx, order.ID); err == nil {
		return nil, domain.NewValidationError("order", "order is already scheduled")
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	sched, err := domain.NewScheduledOrder(order.ID, cmd.ScheduledTime, cmd.DeliveryWindowStart,
		cmd.DeliveryWindowEnd, cmd.DeliveryAddress, cmd.SpecialInstructions, cmd.IsPickup, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.scheduled.Create(ctx, sched); err != nil {
		return nil, err
	}

	s.logger.Debug("order_scheduled", "Scheduled order created", "", map[string]interface{}{
		"order_id":       order.ID.String(),
		"scheduled_time": sched.ScheduledTime,
		"is_pickup":      sched.IsPickup,
	})
	return sched, nil
}

func (s *Service) UpdateScheduledOrder(ctx context.Context, id uuid.UUID, patch domain.ScheduledOrderPatch) (*domain.ScheduledOrder, error) {
	sched, err := s.scheduled.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sched.ApplyPatch(patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.scheduled.Update(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) UpdateDeliveryWindow(ctx context.Context, id uuid.UUID, windowStart, windowEnd time.Time) (*domain.ScheduledOrder, error) {
	sched, err := s.scheduled.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sched.ChangeDeliveryWindow(windowStart, windowEnd, s.now()); err != nil {
		return nil, err
	}
	if err := s.scheduled.Update(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Service) CreateDeliveryZone(ctx context.Context, cmd interfaces.CreateDeliveryZoneCommand) (*domain.DeliveryZone, error) {
	now := s.now()

	zone, err := domain.NewDeliveryZone(cmd.Name, cmd.ChannelID, cmd.DeliveryFee,
		cmd.MinimumOrderValue, cmd.PostalCodes, now)
	if err != nil {
		return nil, err
	}
	if cmd.EstimatedDeliveryMinutes != nil {
		patch := domain.DeliveryZonePatch{EstimatedDeliveryMinutes: cmd.EstimatedDeliveryMinutes}
		if err := zone.ApplyPatch(patch, now); err != nil {
			return nil, err
		}
	}

	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

func (s *Service) UpdateDeliveryZone(ctx context.Context, id uuid.UUID, patch domain.DeliveryZonePatch) (*domain.DeliveryZone, error) {
	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := zone.ApplyPatch(patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

// FindZoneForPostalCode returns the first active zone of the channel whose
// postal-code list contains the code, or nil when no zone covers it.
func (s *Service) FindZoneForPostalCode(ctx context.Context, channelID uuid.UUID, postalCode string) (*domain.DeliveryZone, error) {
	zones, err := s.zones.ListActiveByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	for _, zone := range zones {
		if zone.CoversPostalCode(postalCode) {
			return zone, nil
		}
	}
	return nil, nil
}
