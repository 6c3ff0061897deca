package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type scheduledOrderRepository struct {
	db DB
}

func NewScheduledOrderRepository(db DB) interfaces.ScheduledOrderRepository {
	return &scheduledOrderRepository{db: db}
}

const scheduledOrderColumns = `id, order_id, scheduled_time, delivery_window_start,
	       delivery_window_end, delivery_address, special_instructions, is_pickup,
	       created_at, updated_at`

func scanScheduledOrder(row Row) (*domain.ScheduledOrder, error) {
	var o domain.ScheduledOrder
	err := row.Scan(
		&o.ID, &o.OrderID, &o.ScheduledTime, &o.DeliveryWindowStart,
		&o.DeliveryWindowEnd, &o.DeliveryAddress, &o.SpecialInstructions, &o.IsPickup,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *scheduledOrderRepository) Create(ctx context.Context, order *domain.ScheduledOrder) error {
	query := `
		INSERT INTO scheduled_orders (id, order_id, scheduled_time, delivery_window_start,
		                              delivery_window_end, delivery_address, special_instructions,
		                              is_pickup, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		order.ID, order.OrderID, order.ScheduledTime, order.DeliveryWindowStart,
		order.DeliveryWindowEnd, order.DeliveryAddress, order.SpecialInstructions,
		order.IsPickup, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		// Unique index on order_id keeps one schedule per order.
		if isUniqueViolation(err) {
			return domain.NewValidationError("order", "order is already scheduled")
		}
		return fmt.Errorf("failed to insert scheduled order: %w", err)
	}
	return nil
}

func (r *scheduledOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduledOrder, error) {
	query := `SELECT ` + scheduledOrderColumns + ` FROM scheduled_orders WHERE id = $1`

	order, err := scanScheduledOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("scheduled order", id.String())
		}
		return nil, fmt.Errorf("failed to load scheduled order: %w", err)
	}
	return order, nil
}

func (r *scheduledOrderRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.ScheduledOrder, error) {
	query := `SELECT ` + scheduledOrderColumns + ` FROM scheduled_orders WHERE order_id = $1`

	order, err := scanScheduledOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("scheduled order", "for order "+orderID.String())
		}
		return nil, fmt.Errorf("failed to load scheduled order: %w", err)
	}
	return order, nil
}

func (r *scheduledOrderRepository) Update(ctx context.Context, order *domain.ScheduledOrder) error {
	query := `
		UPDATE scheduled_orders
		SET scheduled_time = $1, delivery_window_start = $2, delivery_window_end = $3,
		    delivery_address = $4, special_instructions = $5, is_pickup = $6, updated_at = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		order.ScheduledTime, order.DeliveryWindowStart, order.DeliveryWindowEnd,
		order.DeliveryAddress, order.SpecialInstructions, order.IsPickup, order.UpdatedAt,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheduled order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("scheduled order", order.ID.String())
	}
	return nil
}

func (r *scheduledOrderRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.ScheduledOrder, error) {
	query := `SELECT ` + scheduledOrderColumns + `
		FROM scheduled_orders
		WHERE scheduled_time BETWEEN $1 AND $2
		ORDER BY scheduled_time`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.ScheduledOrder
	for rows.Next() {
		order, err := scanScheduledOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// orderGateway reads the platform's orders table. The table is owned by the
// surrounding commerce system; this module only selects from it.
type orderGateway struct {
	db DB
}

func NewOrderGateway(db DB) interfaces.OrderGateway {
	return &orderGateway{db: db}
}

func (g *orderGateway) FindByID(ctx context.Context, id uuid.UUID) (*interfaces.ExternalOrder, error) {
	query := `SELECT id, number, status, channel_id FROM orders WHERE id = $1`

	var order interfaces.ExternalOrder
	err := g.db.QueryRow(ctx, query, id).Scan(&order.ID, &order.Number, &order.Status, &order.ChannelID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("order", id.String())
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}
