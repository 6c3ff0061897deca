package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type kitchenRepository struct {
	db DB
}

func NewKitchenRepository(db DB) interfaces.KitchenRepository {
	return &kitchenRepository{db: db}
}

const kitchenColumns = `id, name, channel_id, is_active, max_concurrent_orders,
	       average_prep_time_minutes, seq, created_at, updated_at`

func scanKitchen(row Row) (*domain.Kitchen, error) {
	var k domain.Kitchen
	err := row.Scan(
		&k.ID, &k.Name, &k.ChannelID, &k.IsActive, &k.MaxConcurrentOrders,
		&k.AveragePrepTimeMinutes, &k.Sequence, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *kitchenRepository) Create(ctx context.Context, kitchen *domain.Kitchen) error {
	query := `
		INSERT INTO kitchens (id, name, channel_id, is_active, max_concurrent_orders,
		                      average_prep_time_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`
	err := r.db.QueryRow(ctx, query,
		kitchen.ID, kitchen.Name, kitchen.ChannelID, kitchen.IsActive,
		kitchen.MaxConcurrentOrders, kitchen.AveragePrepTimeMinutes,
		kitchen.CreatedAt, kitchen.UpdatedAt,
	).Scan(&kitchen.Sequence)
	if err != nil {
		return fmt.Errorf("failed to insert kitchen: %w", err)
	}
	return nil
}

func (r *kitchenRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Kitchen, error) {
	query := `SELECT ` + kitchenColumns + ` FROM kitchens WHERE id = $1`

	kitchen, err := scanKitchen(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("kitchen", id.String())
		}
		return nil, fmt.Errorf("failed to load kitchen: %w", err)
	}
	return kitchen, nil
}

func (r *kitchenRepository) Update(ctx context.Context, kitchen *domain.Kitchen) error {
	query := `
		UPDATE kitchens
		SET name = $1, is_active = $2, max_concurrent_orders = $3,
		    average_prep_time_minutes = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		kitchen.Name, kitchen.IsActive, kitchen.MaxConcurrentOrders,
		kitchen.AveragePrepTimeMinutes, kitchen.UpdatedAt, kitchen.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update kitchen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("kitchen", kitchen.ID.String())
	}
	return nil
}

func (r *kitchenRepository) ListAll(ctx context.Context) ([]*domain.Kitchen, error) {
	query := `SELECT ` + kitchenColumns + ` FROM kitchens ORDER BY seq`
	return r.queryKitchens(ctx, query)
}

func (r *kitchenRepository) ListActiveByChannel(ctx context.Context, channelID uuid.UUID) ([]*domain.Kitchen, error) {
	query := `SELECT ` + kitchenColumns + `
		FROM kitchens
		WHERE is_active = TRUE AND channel_id = $1
		ORDER BY seq`
	return r.queryKitchens(ctx, query, channelID)
}

func (r *kitchenRepository) queryKitchens(ctx context.Context, query string, args ...any) ([]*domain.Kitchen, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kitchens: %w", err)
	}
	defer rows.Close()

	var kitchens []*domain.Kitchen
	for rows.Next() {
		kitchen, err := scanKitchen(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kitchen: %w", err)
		}
		kitchens = append(kitchens, kitchen)
	}
	return kitchens, nil
}

type kitchenOrderRepository struct {
	db DB
}

func NewKitchenOrderRepository(db DB) interfaces.KitchenOrderRepository {
	return &kitchenOrderRepository{db: db}
}

const kitchenOrderColumns = `id, order_id, kitchen_id, status, estimated_completion,
	       actual_completion, special_instructions, seq, created_at, updated_at`

func scanKitchenOrder(row Row) (*domain.KitchenOrder, error) {
	var o domain.KitchenOrder
	err := row.Scan(
		&o.ID, &o.OrderID, &o.KitchenID, &o.Status, &o.EstimatedCompletion,
		&o.ActualCompletion, &o.SpecialInstructions, &o.Sequence, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *kitchenOrderRepository) Create(ctx context.Context, order *domain.KitchenOrder) error {
	query := `
		INSERT INTO kitchen_orders (id, order_id, kitchen_id, status, estimated_completion,
		                            actual_completion, special_instructions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`
	err := r.db.QueryRow(ctx, query,
		order.ID, order.OrderID, order.KitchenID, order.Status, order.EstimatedCompletion,
		order.ActualCompletion, order.SpecialInstructions, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.Sequence)
	if err != nil {
		// Unique index on order_id keeps one kitchen order per order.
		if isUniqueViolation(err) {
			return domain.NewValidationError("order", "order is already assigned to a kitchen")
		}
		return fmt.Errorf("failed to insert kitchen order: %w", err)
	}
	return nil
}

func (r *kitchenOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.KitchenOrder, error) {
	query := `SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders WHERE id = $1`

	order, err := scanKitchenOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("kitchen order", id.String())
		}
		return nil, fmt.Errorf("failed to load kitchen order: %w", err)
	}
	return order, nil
}

func (r *kitchenOrderRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.KitchenOrder, error) {
	query := `SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders WHERE order_id = $1`

	order, err := scanKitchenOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("kitchen order", "for order "+orderID.String())
		}
		return nil, fmt.Errorf("failed to load kitchen order: %w", err)
	}
	return order, nil
}

func (r *kitchenOrderRepository) Update(ctx context.Context, order *domain.KitchenOrder) error {
	query := `
		UPDATE kitchen_orders
		SET status = $1, estimated_completion = $2, actual_completion = $3,
		    special_instructions = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		order.Status, order.EstimatedCompletion, order.ActualCompletion,
		order.SpecialInstructions, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update kitchen order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("kitchen order", order.ID.String())
	}
	return nil
}

func (r *kitchenOrderRepository) ListActive(ctx context.Context) ([]*domain.KitchenOrder, error) {
	query := `SELECT ` + kitchenOrderColumns + `
		FROM kitchen_orders
		WHERE status IN ('received', 'preparing')
		ORDER BY created_at, seq`
	return r.queryOrders(ctx, query)
}

func (r *kitchenOrderRepository) ListByKitchenBetween(ctx context.Context, kitchenID uuid.UUID, from, to time.Time) ([]*domain.KitchenOrder, error) {
	query := `SELECT ` + kitchenOrderColumns + `
		FROM kitchen_orders
		WHERE kitchen_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at, seq`
	return r.queryOrders(ctx, query, kitchenID, from, to)
}

func (r *kitchenOrderRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM kitchen_orders
		WHERE status IN ('delivered', 'cancelled') AND updated_at < $1
	`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old kitchen orders: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *kitchenOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.KitchenOrder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kitchen orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.KitchenOrder
	for rows.Next() {
		order, err := scanKitchenOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kitchen order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}
