package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExpiryAlertItem describes one imminently expiring batch.
type ExpiryAlertItem struct {
	VariantID       uuid.UUID `json:"variant_id"`
	BatchNumber     string    `json:"batch_number"`
	ExpiryDate      time.Time `json:"expiry_date"`
	Quantity        int       `json:"quantity"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}

// ExpiryAlertMessage is published once per warehouse with imminently
// expiring stock. Delivery failure is logged, not retried beyond the
// job-level retry.
type ExpiryAlertMessage struct {
	WarehouseID uuid.UUID         `json:"warehouse_id"`
	Items       []ExpiryAlertItem `json:"items"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type AlertPublisher interface {
	PublishExpiryAlert(ctx context.Context, msg ExpiryAlertMessage) error
}

type ExpiryAlertHandler func(ctx context.Context, body []byte) error

type AlertConsumer interface {
	ConsumeExpiryAlerts(ctx context.Context, handler ExpiryAlertHandler) error
}
