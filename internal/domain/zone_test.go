package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestZone(t *testing.T, postalCodes string) *DeliveryZone {
	t.Helper()
	zone, err := NewDeliveryZone(
		"North Side", uuid.New(),
		decimal.NewFromFloat(4.50), decimal.NewFromFloat(15),
		postalCodes, testNow,
	)
	if err != nil {
		t.Fatalf("Failed to create zone: %v", err)
	}
	return zone
}

func TestNewDeliveryZone_Validation(t *testing.T) {
	channelID := uuid.New()

	if _, err := NewDeliveryZone("  ", channelID, decimal.Zero, decimal.Zero, "", testNow); err == nil {
		t.Error("Expected blank name to be rejected")
	}
	if _, err := NewDeliveryZone("Z", channelID, decimal.NewFromInt(-1), decimal.Zero, "", testNow); err == nil {
		t.Error("Expected negative delivery fee to be rejected")
	}
	if _, err := NewDeliveryZone("Z", channelID, decimal.Zero, decimal.NewFromInt(-1), "", testNow); err == nil {
		t.Error("Expected negative minimum order value to be rejected")
	}

	zone, err := NewDeliveryZone("Z", channelID, decimal.Zero, decimal.Zero, "", testNow)
	if err != nil {
		t.Fatalf("Zero fees must be accepted: %v", err)
	}
	if zone.EstimatedDeliveryMinutes != 30 {
		t.Errorf("Expected default estimate 30, got %d", zone.EstimatedDeliveryMinutes)
	}
}

func TestCoversPostalCode(t *testing.T) {
	zone := newTestZone(t, "10115, 10117 ,10119")

	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "first_token", code: "10115", want: true},
		{name: "token_with_surrounding_spaces", code: "10117", want: true},
		{name: "last_token", code: "10119", want: true},
		{name: "not_listed", code: "10178", want: false},
		{name: "prefix_is_not_a_match", code: "101", want: false},
		{name: "empty_code", code: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := zone.CoversPostalCode(tt.code); got != tt.want {
				t.Errorf("CoversPostalCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestCoversPostalCode_EmptyList(t *testing.T) {
	zone := newTestZone(t, "")
	if zone.CoversPostalCode("10115") {
		t.Error("Zone with no postal codes must not cover anything")
	}
}

func TestDeliveryZone_ApplyPatch(t *testing.T) {
	zone := newTestZone(t, "10115")

	negative := decimal.NewFromInt(-2)
	if err := zone.ApplyPatch(DeliveryZonePatch{DeliveryFee: &negative}, testNow); err == nil {
		t.Error("Expected negative fee patch to be rejected")
	}

	zero := 0
	if err := zone.ApplyPatch(DeliveryZonePatch{EstimatedDeliveryMinutes: &zero}, testNow); err == nil {
		t.Error("Expected zero estimate patch to be rejected")
	}

	inactive := false
	codes := "10115,10117"
	if err := zone.ApplyPatch(DeliveryZonePatch{IsActive: &inactive, PostalCodes: &codes}, testNow); err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if zone.IsActive {
		t.Error("Expected zone to be inactive")
	}
	if !zone.CoversPostalCode("10117") {
		t.Error("Expected updated postal codes to apply")
	}
}
