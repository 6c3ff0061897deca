package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/foodops/localfood/internal/interfaces"
)

const expiryAlertsExchange = "stock_alerts_fanout"

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.AlertPublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishExpiryAlert(ctx context.Context, msg interfaces.ExpiryAlertMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(expiryAlertsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.Publish(expiryAlertsExchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
