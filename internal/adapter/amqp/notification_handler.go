package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/interfaces"
)

// NotificationHandler is the expiry-alert sink run by the
// notification-subscriber mode. It logs each alert and prints a
// human-readable line per expiring batch.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
	}
}

func (h *NotificationHandler) HandleExpiryAlert(ctx context.Context, body []byte) error {
	var msg interfaces.ExpiryAlertMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse expiry alert", "", nil, err)
		return err
	}

	h.logger.Info("expiry_alert_received",
		fmt.Sprintf("Warehouse %s has %d expiring batches", msg.WarehouseID, len(msg.Items)),
		"", map[string]interface{}{
			"warehouse_id": msg.WarehouseID.String(),
			"batch_count":  len(msg.Items),
		})

	for _, item := range msg.Items {
		fmt.Printf("Expiry alert for warehouse %s: batch %s (variant %s) expires in %d days, %d units on hand\n",
			msg.WarehouseID, item.BatchNumber, item.VariantID, item.DaysUntilExpiry, item.Quantity)
	}

	return nil
}
