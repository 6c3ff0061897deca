package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryZone defines the coverage area and pricing of a sales channel's
// delivery service. PostalCodes is stored as a comma-delimited string and
// parsed on every membership check.
type DeliveryZone struct {
	ID                       uuid.UUID
	Name                     string
	ChannelID                uuid.UUID
	DeliveryFee              decimal.Decimal
	MinimumOrderValue        decimal.Decimal
	EstimatedDeliveryMinutes int
	IsActive                 bool
	PostalCodes              string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

const defaultEstimatedDeliveryMinutes = 30

// NewDeliveryZone creates a validated delivery zone.
func NewDeliveryZone(name string, channelID uuid.UUID, deliveryFee, minimumOrderValue decimal.Decimal, postalCodes string, now time.Time) (*DeliveryZone, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "zone name is required")
	}
	if channelID == uuid.Nil {
		return nil, NewValidationError("channel", "channel is required")
	}
	if deliveryFee.IsNegative() {
		return nil, NewValidationError("delivery_fee", "delivery fee cannot be negative")
	}
	if minimumOrderValue.IsNegative() {
		return nil, NewValidationError("minimum_order_value", "minimum order value cannot be negative")
	}

	return &DeliveryZone{
		ID:                       uuid.New(),
		Name:                     name,
		ChannelID:                channelID,
		DeliveryFee:              deliveryFee,
		MinimumOrderValue:        minimumOrderValue,
		EstimatedDeliveryMinutes: defaultEstimatedDeliveryMinutes,
		IsActive:                 true,
		PostalCodes:              postalCodes,
		CreatedAt:                now,
		UpdatedAt:                now,
	}, nil
}

// CoversPostalCode splits the stored list on commas, trims each token, and
// checks for an exact match. No normalization beyond trimming.
func (z *DeliveryZone) CoversPostalCode(code string) bool {
	for _, token := range strings.Split(z.PostalCodes, ",") {
		if strings.TrimSpace(token) == code {
			return true
		}
	}
	return false
}

// DeliveryZonePatch enumerates the mutable zone fields.
type DeliveryZonePatch struct {
	Name                     *string
	DeliveryFee              *decimal.Decimal
	MinimumOrderValue        *decimal.Decimal
	EstimatedDeliveryMinutes *int
	IsActive                 *bool
	PostalCodes              *string
}

func (z *DeliveryZone) ApplyPatch(patch DeliveryZonePatch, now time.Time) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return NewValidationError("name", "zone name is required")
	}
	if patch.DeliveryFee != nil && patch.DeliveryFee.IsNegative() {
		return NewValidationError("delivery_fee", "delivery fee cannot be negative")
	}
	if patch.MinimumOrderValue != nil && patch.MinimumOrderValue.IsNegative() {
		return NewValidationError("minimum_order_value", "minimum order value cannot be negative")
	}
	if patch.EstimatedDeliveryMinutes != nil && *patch.EstimatedDeliveryMinutes <= 0 {
		return NewValidationError("estimated_delivery_minutes", "estimated delivery minutes must be greater than zero")
	}

	if patch.Name != nil {
		z.Name = *patch.Name
	}
	if patch.DeliveryFee != nil {
		z.DeliveryFee = *patch.DeliveryFee
	}
	if patch.MinimumOrderValue != nil {
		z.MinimumOrderValue = *patch.MinimumOrderValue
	}
	if patch.EstimatedDeliveryMinutes != nil {
		z.EstimatedDeliveryMinutes = *patch.EstimatedDeliveryMinutes
	}
	if patch.IsActive != nil {
		z.IsActive = *patch.IsActive
	}
	if patch.PostalCodes != nil {
		z.PostalCodes = *patch.PostalCodes
	}
	z.UpdatedAt = now
	return nil
}

func (z *DeliveryZone) Clone() *DeliveryZone {
	c := *z
	return &c
}
