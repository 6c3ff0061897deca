package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PerishableBatch is a discrete lot of a perishable product variant received
// into a warehouse with a known expiry date. Reservations are soft holds
// tracked in ReservedQuantity; total Quantity is never decremented by them.
type PerishableBatch struct {
	ID               uuid.UUID
	VariantID        uuid.UUID
	WarehouseID      uuid.UUID
	BatchNumber      string
	ExpiryDate       time.Time
	ReceivedDate     time.Time
	Quantity         int
	ReservedQuantity int
	IsAvailable      bool
	SupplierInfo     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Day truncates t to midnight UTC. Expiry and receipt dates are date-only
// values; all day arithmetic goes through this.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewPerishableBatch creates a validated batch with no reservations.
func NewPerishableBatch(variantID, warehouseID uuid.UUID, batchNumber string, expiryDate time.Time, quantity int, supplierInfo string, now time.Time) (*PerishableBatch, error) {
	if variantID == uuid.Nil {
		return nil, NewValidationError("product_variant", "product variant is required")
	}
	if warehouseID == uuid.Nil {
		return nil, NewValidationError("warehouse", "warehouse is required")
	}
	if batchNumber == "" {
		return nil, NewValidationError("batch_number", "batch number is required")
	}
	today := Day(now)
	if !Day(expiryDate).After(today) {
		return nil, NewValidationError("expiry_date", "expiry date must be in the future")
	}
	if quantity <= 0 {
		return nil, NewValidationError("quantity", "quantity must be greater than zero")
	}

	return &PerishableBatch{
		ID:               uuid.New(),
		VariantID:        variantID,
		WarehouseID:      warehouseID,
		BatchNumber:      batchNumber,
		ExpiryDate:       Day(expiryDate),
		ReceivedDate:     today,
		Quantity:         quantity,
		ReservedQuantity: 0,
		IsAvailable:      true,
		SupplierInfo:     supplierInfo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AvailableQuantity is derived on every read, never stored.
func (b *PerishableBatch) AvailableQuantity() int {
	if avail := b.Quantity - b.ReservedQuantity; avail > 0 {
		return avail
	}
	return 0
}

// IsExpired reports whether the batch expired strictly before the given day.
func (b *PerishableBatch) IsExpired(now time.Time) bool {
	return Day(now).After(b.ExpiryDate)
}

// DaysUntilExpiry may be negative for already-expired batches.
func (b *PerishableBatch) DaysUntilExpiry(now time.Time) int {
	return int(b.ExpiryDate.Sub(Day(now)).Hours() / 24)
}

// Reserve increments the reserved quantity. Preconditions are checked in
// order: positive amount, batch availability, expiry, sufficient stock.
// Callers must run this as an atomic read-modify-write against the store;
// the sum of reservations must never exceed Quantity.
func (b *PerishableBatch) Reserve(amount int, now time.Time) error {
	if amount <= 0 {
		return NewValidationError("quantity", "reservation quantity must be greater than zero")
	}
	if !b.IsAvailable {
		return NewValidationError("quantity", "cannot reserve from unavailable stock")
	}
	if b.IsExpired(now) {
		return NewValidationError("quantity", "cannot reserve from expired stock")
	}
	if avail := b.AvailableQuantity(); amount > avail {
		return NewValidationError("quantity",
			fmt.Sprintf("cannot reserve %d items, only %d items available", amount, avail))
	}

	b.ReservedQuantity += amount
	b.UpdatedAt = now
	return nil
}

// Release decrements the reserved quantity.
func (b *PerishableBatch) Release(amount int, now time.Time) error {
	if amount <= 0 {
		return NewValidationError("quantity", "release quantity must be greater than zero")
	}
	if amount > b.ReservedQuantity {
		return NewValidationError("quantity",
			fmt.Sprintf("cannot release %d items, only %d items reserved", amount, b.ReservedQuantity))
	}

	b.ReservedQuantity -= amount
	b.UpdatedAt = now
	return nil
}

// MarkExpired flips the batch to unavailable. Idempotent: marking an
// already-unavailable batch is a no-op, not an error. Availability is never
// flipped back automatically.
func (b *PerishableBatch) MarkExpired(now time.Time) {
	if !b.IsAvailable {
		return
	}
	b.IsAvailable = false
	b.UpdatedAt = now
}

// BatchPatch enumerates the mutable batch fields. Only non-nil fields are
// applied; an unconstrained key/value map is never written to the record.
type BatchPatch struct {
	BatchNumber  *string
	ExpiryDate   *time.Time
	Quantity     *int
	SupplierInfo *string
	IsAvailable  *bool
}

// ApplyPatch validates and applies the supplied fields.
func (b *PerishableBatch) ApplyPatch(patch BatchPatch, now time.Time) error {
	if patch.BatchNumber != nil && *patch.BatchNumber == "" {
		return NewValidationError("batch_number", "batch number is required")
	}
	if patch.ExpiryDate != nil && !Day(*patch.ExpiryDate).After(Day(now)) {
		return NewValidationError("expiry_date", "expiry date must be in the future")
	}
	if patch.Quantity != nil && *patch.Quantity < b.ReservedQuantity {
		return NewValidationError("quantity",
			fmt.Sprintf("quantity cannot be less than reserved quantity (%d)", b.ReservedQuantity))
	}

	if patch.BatchNumber != nil {
		b.BatchNumber = *patch.BatchNumber
	}
	if patch.ExpiryDate != nil {
		b.ExpiryDate = Day(*patch.ExpiryDate)
	}
	if patch.Quantity != nil {
		b.Quantity = *patch.Quantity
	}
	if patch.SupplierInfo != nil {
		b.SupplierInfo = *patch.SupplierInfo
	}
	if patch.IsAvailable != nil {
		b.IsAvailable = *patch.IsAvailable
	}
	b.UpdatedAt = now
	return nil
}

// Clone returns a copy safe to hand across goroutine boundaries.
func (b *PerishableBatch) Clone() *PerishableBatch {
	c := *b
	return &c
}

type StockPriority string

const (
	StockPriorityHigh   StockPriority = "HIGH"
	StockPriorityMedium StockPriority = "MEDIUM"
)

// FIFORecommendation tells operators which batch to consume next.
type FIFORecommendation struct {
	Batch             *PerishableBatch
	AvailableQuantity int
	DaysUntilExpiry   int
	Priority          StockPriority
}
