package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

type batchRepository struct {
	db DB
}

func NewBatchRepository(db DB) interfaces.BatchRepository {
	return &batchRepository{db: db}
}

const batchColumns = `id, variant_id, warehouse_id, batch_number, expiry_date,
	       received_date, quantity, reserved_quantity, is_available, supplier_info,
	       created_at, updated_at`

func scanBatch(row Row) (*domain.PerishableBatch, error) {
	var b domain.PerishableBatch
	err := row.Scan(
		&b.ID, &b.VariantID, &b.WarehouseID, &b.BatchNumber, &b.ExpiryDate,
		&b.ReceivedDate, &b.Quantity, &b.ReservedQuantity, &b.IsAvailable, &b.SupplierInfo,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *batchRepository) Create(ctx context.Context, batch *domain.PerishableBatch) error {
	query := `
		INSERT INTO perishable_stock (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		batch.ID, batch.VariantID, batch.WarehouseID, batch.BatchNumber,
		batch.ExpiryDate, batch.ReceivedDate, batch.Quantity, batch.ReservedQuantity,
		batch.IsAvailable, batch.SupplierInfo, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		// The unique index on (variant_id, warehouse_id,
		// batch_number) is what makes the duplicate check race-free.
		if isUniqueViolation(err) {
			return domain.NewValidationError("batch_number",
				fmt.Sprintf("batch number %q already exists for this product in this warehouse", batch.BatchNumber))
		}
		return fmt.Errorf("failed to insert perishable batch: %w", err)
	}
	return nil
}

func (r *batchRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PerishableBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM perishable_stock WHERE id = $1`

	batch, err := scanBatch(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("perishable stock batch", id.String())
		}
		return nil, fmt.Errorf("failed to load perishable batch: %w", err)
	}
	return batch, nil
}

func (r *batchRepository) ExistsBatchNumber(ctx context.Context, variantID, warehouseID uuid.UUID, batchNumber string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM perishable_stock
			WHERE variant_id = $1 AND warehouse_id = $2 AND batch_number = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, variantID, warehouseID, batchNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check batch number: %w", err)
	}
	return exists, nil
}

// Apply runs mutate against the row locked with SELECT ... FOR UPDATE, so
// concurrent reservations against the same batch are serialized by the
// database and re-check state after acquiring the lock.
func (r *batchRepository) Apply(ctx context.Context, id uuid.UUID, mutate func(*domain.PerishableBatch) error) (*domain.PerishableBatch, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + batchColumns + ` FROM perishable_stock WHERE id = $1 FOR UPDATE`
	batch, err := scanBatch(tx.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNotFoundError("perishable stock batch", id.String())
		}
		return nil, fmt.Errorf("failed to lock perishable batch: %w", err)
	}

	if err := mutate(batch); err != nil {
		return nil, err
	}

	update := `
		UPDATE perishable_stock
		SET batch_number = $1, expiry_date = $2, quantity = $3, reserved_quantity = $4,
		    is_available = $5, supplier_info = $6, updated_at = $7
		WHERE id = $8
	`
	_, err = tx.Exec(ctx, update,
		batch.BatchNumber, batch.ExpiryDate, batch.Quantity, batch.ReservedQuantity,
		batch.IsAvailable, batch.SupplierInfo, batch.UpdatedAt, batch.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewValidationError("batch_number",
				fmt.Sprintf("batch number %q already exists for this product in this warehouse", batch.BatchNumber))
		}
		return nil, fmt.Errorf("failed to update perishable batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit batch update: %w", err)
	}
	return batch, nil
}

func (r *batchRepository) ListExpiring(ctx context.Context, byDate time.Time, warehouseID *uuid.UUID) ([]*domain.PerishableBatch, error) {
	query := `SELECT ` + batchColumns + `
		FROM perishable_stock
		WHERE is_available = TRUE AND expiry_date <= $1`
	args := []any{byDate}
	if warehouseID != nil {
		query += ` AND warehouse_id = $2`
		args = append(args, *warehouseID)
	}
	query += ` ORDER BY expiry_date, received_date`

	return r.queryBatches(ctx, query, args...)
}

func (r *batchRepository) ListAvailable(ctx context.Context) ([]*domain.PerishableBatch, error) {
	query := `SELECT ` + batchColumns + `
		FROM perishable_stock
		WHERE is_available = TRUE
		ORDER BY expiry_date, received_date`

	return r.queryBatches(ctx, query)
}

func (r *batchRepository) MarkExpiredBefore(ctx context.Context, asOf time.Time) (int, error) {
	query := `
		UPDATE perishable_stock
		SET is_available = FALSE, updated_at = $1
		WHERE is_available = TRUE AND expiry_date < $2
	`
	tag, err := r.db.Exec(ctx, query, asOf, domain.Day(asOf))
	if err != nil {
		return 0, fmt.Errorf("failed to expire batches: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *batchRepository) queryBatches(ctx context.Context, query string, args ...any) ([]*domain.PerishableBatch, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query perishable batches: %w", err)
	}
	defer rows.Close()

	var batches []*domain.PerishableBatch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan perishable batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
