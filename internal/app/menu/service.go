package menu

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

// Service is the time-based menu availability clock.
type Service struct {
	slots  interfaces.MenuTimeSlotRepository
	logger logger.Logger
	now    func() time.Time
}

var _ interfaces.MenuService = (*Service)(nil)

func NewService(slots interfaces.MenuTimeSlotRepository, lgr logger.Logger) *Service {
	return &Service{
		slots:  slots,
		logger: lgr,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateTimeSlot(ctx context.Context, cmd interfaces.CreateTimeSlotCommand) (*domain.MenuTimeSlot, error) {
	slot, err := domain.NewMenuTimeSlot(cmd.VariantID, cmd.ChannelID, cmd.Weekday,
		cmd.StartMinute, cmd.EndMinute, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Debug("time_slot_created", "Menu time slot created", "", map[string]interface{}{
		"slot_id": slot.ID.String(),
		"weekday": slot.Weekday,
	})
	return slot, nil
}

func (s *Service) UpdateTimeSlot(ctx context.Context, id uuid.UUID, patch domain.MenuTimeSlotPatch) (*domain.MenuTimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := slot.ApplyPatch(patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// IsAvailableAt reports whether any of the offering's slots makes it
// servable at the given instant.
func (s *Service) IsAvailableAt(ctx context.Context, variantID, channelID uuid.UUID, at time.Time) (bool, error) {
	slots, err := s.slots.ListByVariantChannel(ctx, variantID, channelID)
	if err != nil {
		return false, err
	}

	for _, slot := range slots {
		if slot.IsAvailableAt(at) {
			return true, nil
		}
	}
	return false, nil
}
