package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type menuTimeSlotRepository struct {
	db DB
}

func NewMenuTimeSlotRepository(db DB) interfaces.MenuTimeSlotRepository {
	return &menuTimeSlotRepository{db: db}
}

const timeSlotColumns = `id, variant_id, channel_id, weekday, start_minute, end_minute,
	       is_active, created_at, updated_at`

func scanTimeSlot(row Row) (*domain.MenuTimeSlot, error) {
	var s domain.MenuTimeSlot
	err := row.Scan(
		&s.ID, &s.VariantID, &s.ChannelID, &s.Weekday, &s.StartMinute, &s.EndMinute,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *menuTimeSlotRepository) Create(ctx context.Context, slot *domain.MenuTimeSlot) error {
	query := `
		INSERT INTO menu_time_slots (id, variant_id, channel_id, weekday, start_minute,
		                             end_minute, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		slot.ID, slot.VariantID, slot.ChannelID, slot.Weekday, slot.StartMinute,
		slot.EndMinute, slot.IsActive, slot.CreatedAt, slot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("start_time",
				"a time slot with this start time already exists for the variant")
		}
		return fmt.Errorf("failed to insert time slot: %w", err)
	}
	return nil
}

func (r *menuTimeSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MenuTimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM menu_time_slots WHERE id = $1`

	slot, err := scanTimeSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("menu time slot", id.String())
		}
		return nil, fmt.Errorf("failed to load time slot: %w", err)
	}
	return slot, nil
}

func (r *menuTimeSlotRepository) Update(ctx context.Context, slot *domain.MenuTimeSlot) error {
	query := `
		UPDATE menu_time_slots
		SET weekday = $1, start_minute = $2, end_minute = $3, is_active = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		slot.Weekday, slot.StartMinute, slot.EndMinute, slot.IsActive, slot.UpdatedAt, slot.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("start_time",
				"a time slot with this start time already exists for the variant")
		}
		return fmt.Errorf("failed to update time slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("menu time slot", slot.ID.String())
	}
	return nil
}

func (r *menuTimeSlotRepository) ListByVariantChannel(ctx context.Context, variantID, channelID uuid.UUID) ([]*domain.MenuTimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + `
		FROM menu_time_slots
		WHERE variant_id = $1 AND channel_id = $2
		ORDER BY weekday, start_minute`

	rows, err := r.db.Query(ctx, query, variantID, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time slots: %w", err)
	}
	defer rows.Close()

	var slots []*domain.MenuTimeSlot
	for rows.Next() {
		slot, err := scanTimeSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

type deliveryZoneRepository struct {
	db DB
}

func NewDeliveryZoneRepository(db DB) interfaces.DeliveryZoneRepository {
	return &deliveryZoneRepository{db: db}
}

const zoneColumns = `id, name, channel_id, delivery_fee, minimum_order_value,
	       estimated_delivery_minutes, is_active, postal_codes, created_at, updated_at`

func scanZone(row Row) (*domain.DeliveryZone, error) {
	var z domain.DeliveryZone
	err := row.Scan(
		&z.ID, &z.Name, &z.ChannelID, &z.DeliveryFee, &z.MinimumOrderValue,
		&z.EstimatedDeliveryMinutes, &z.IsActive, &z.PostalCodes, &z.CreatedAt, &z.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *deliveryZoneRepository) Create(ctx context.Context, zone *domain.DeliveryZone) error {
	query := `
		INSERT INTO delivery_zones (id, name, channel_id, delivery_fee, minimum_order_value,
		                            estimated_delivery_minutes, is_active, postal_codes,
		                            created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		zone.ID, zone.Name, zone.ChannelID, zone.DeliveryFee, zone.MinimumOrderValue,
		zone.EstimatedDeliveryMinutes, zone.IsActive, zone.PostalCodes,
		zone.CreatedAt, zone.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery zone: %w", err)
	}
	return nil
}

func (r *deliveryZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryZone, error) {
	query := `SELECT ` + zoneColumns + ` FROM delivery_zones WHERE id = $1`

	zone, err := scanZone(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("delivery zone", id.String())
		}
		return nil, fmt.Errorf("failed to load delivery zone: %w", err)
	}
	return zone, nil
}

func (r *deliveryZoneRepository) Update(ctx context.Context, zone *domain.DeliveryZone) error {
	query := `
		UPDATE delivery_zones
		SET name = $1, delivery_fee = $2, minimum_order_value = $3,
		    estimated_delivery_minutes = $4, is_active = $5, postal_codes = $6, updated_at = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		zone.Name, zone.DeliveryFee, zone.MinimumOrderValue,
		zone.EstimatedDeliveryMinutes, zone.IsActive, zone.PostalCodes, zone.UpdatedAt,
		zone.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("delivery zone", zone.ID.String())
	}
	return nil
}

func (r *deliveryZoneRepository) ListActiveByChannel(ctx context.Context, channelID uuid.UUID) ([]*domain.DeliveryZone, error) {
	query := `SELECT ` + zoneColumns + `
		FROM delivery_zones
		WHERE is_active = TRUE AND channel_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery zones: %w", err)
	}
	defer rows.Close()

	var zones []*domain.DeliveryZone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery zone: %w", err)
		}
		zones = append(zones, zone)
	}
	return zones, nil
}
