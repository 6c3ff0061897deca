package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type MenuTimeSlotRepository struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*domain.MenuTimeSlot
}

var _ interfaces.MenuTimeSlotRepository = (*MenuTimeSlotRepository)(nil)

func NewMenuTimeSlotRepository() *MenuTimeSlotRepository {
	return &MenuTimeSlotRepository{slots: make(map[uuid.UUID]*domain.MenuTimeSlot)}
}

func (r *MenuTimeSlotRepository) Create(ctx context.Context, slot *domain.MenuTimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots {
		if s.VariantID == slot.VariantID && s.ChannelID == slot.ChannelID &&
			s.Weekday == slot.Weekday && s.StartMinute == slot.StartMinute {
			return domain.NewValidationError("start_time",
				"a time slot with this start time already exists for this offering and weekday")
		}
	}

	r.slots[slot.ID] = slot.Clone()
	return nil
}

func (r *MenuTimeSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MenuTimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, ok := r.slots[id]
	if !ok {
		return nil, domain.NewNotFoundError("menu time slot", id.String())
	}
	return slot.Clone(), nil
}

func (r *MenuTimeSlotRepository) Update(ctx context.Context, slot *domain.MenuTimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[slot.ID]; !ok {
		return domain.NewNotFoundError("menu time slot", slot.ID.String())
	}
	r.slots[slot.ID] = slot.Clone()
	return nil
}

func (r *MenuTimeSlotRepository) ListByVariantChannel(ctx context.Context, variantID, channelID uuid.UUID) ([]*domain.MenuTimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var slots []*domain.MenuTimeSlot
	for _, s := range r.slots {
		if s.VariantID == variantID && s.ChannelID == channelID {
			slots = append(slots, s.Clone())
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots, nil
}

type DeliveryZoneRepository struct {
	mu    sync.RWMutex
	zones map[uuid.UUID]*domain.DeliveryZone
	order []uuid.UUID
}

var _ interfaces.DeliveryZoneRepository = (*DeliveryZoneRepository)(nil)

func NewDeliveryZoneRepository() *DeliveryZoneRepository {
	return &DeliveryZoneRepository{zones: make(map[uuid.UUID]*domain.DeliveryZone)}
}

func (r *DeliveryZoneRepository) Create(ctx context.Context, zone *domain.DeliveryZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.zones[zone.ID] = zone.Clone()
	r.order = append(r.order, zone.ID)
	return nil
}

func (r *DeliveryZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zone, ok := r.zones[id]
	if !ok {
		return nil, domain.NewNotFoundError("delivery zone", id.String())
	}
	return zone.Clone(), nil
}

func (r *DeliveryZoneRepository) Update(ctx context.Context, zone *domain.DeliveryZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.zones[zone.ID]; !ok {
		return domain.NewNotFoundError("delivery zone", zone.ID.String())
	}
	r.zones[zone.ID] = zone.Clone()
	return nil
}

func (r *DeliveryZoneRepository) ListActiveByChannel(ctx context.Context, channelID uuid.UUID) ([]*domain.DeliveryZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zones []*domain.DeliveryZone
	for _, id := range r.order {
		z := r.zones[id]
		if z.IsActive && z.ChannelID == channelID {
			zones = append(zones, z.Clone())
		}
	}
	return zones, nil
}
