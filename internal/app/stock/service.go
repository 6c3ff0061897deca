package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

const (
	// Batches within this many days of expiry show up in FIFO
	// recommendations.
	fifoRecommendationDays = 5
	fifoHighPriorityDays   = 2
)

// Service is the perishable-stock reservation and lifecycle engine.
type Service struct {
	batches   interfaces.BatchRepository
	publisher interfaces.AlertPublisher
	logger    logger.Logger
	now       func() time.Time
}

var _ interfaces.StockService = (*Service)(nil)

func NewService(batches interfaces.BatchRepository, publisher interfaces.AlertPublisher, lgr logger.Logger) *Service {
	return &Service{
		batches:   batches,
		publisher: publisher,
		logger:    lgr,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateBatch(ctx context.Context, cmd interfaces.CreateBatchCommand) (*domain.PerishableBatch, error) {
	now := s.now()

	batch, err := domain.NewPerishableBatch(cmd.VariantID, cmd.WarehouseID, cmd.BatchNumber,
		cmd.ExpiryDate, cmd.Quantity, cmd.SupplierInfo, now)
	if err != nil {
		return nil, err
	}

	// Fast duplicate check; the repository re-enforces uniqueness at
	// insert to close the race against concurrent creators.
	exists, err := s.batches.ExistsBatchNumber(ctx, cmd.VariantID, cmd.WarehouseID, cmd.BatchNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check batch number: %w", err)
	}
	if exists {
		return nil, domain.NewValidationError("batch_number",
			fmt.Sprintf("batch number %q already exists for this product in this warehouse", cmd.BatchNumber))
	}

	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	s.logger.Debug("batch_created", "Perishable batch created", "", map[string]interface{}{
		"batch_id":     batch.ID.String(),
		"batch_number": batch.BatchNumber,
		"quantity":     batch.Quantity,
	})
	return batch, nil
}

func (s *Service) UpdateBatch(ctx context.Context, id uuid.UUID, patch domain.BatchPatch) (*domain.PerishableBatch, error) {
	now := s.now()
	return s.batches.Apply(ctx, id, func(b *domain.PerishableBatch) error {
		return b.ApplyPatch(patch, now)
	})
}

// Reserve places a soft hold on batch stock. The check-then-apply sequence
// runs inside the repository's per-batch atomic apply, so concurrent
// reservations are serialized and can never jointly exceed the quantity.
func (s *Service) Reserve(ctx context.Context, id uuid.UUID, amount int) (*domain.PerishableBatch, error) {
	now := s.now()
	batch, err := s.batches.Apply(ctx, id, func(b *domain.PerishableBatch) error {
		return b.Reserve(amount, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("stock_reserved", "Reserved perishable stock", "", map[string]interface{}{
		"batch_id": id.String(),
		"amount":   amount,
		"reserved": batch.ReservedQuantity,
	})
	return batch, nil
}

func (s *Service) Release(ctx context.Context, id uuid.UUID, amount int) (*domain.PerishableBatch, error) {
	now := s.now()
	batch, err := s.batches.Apply(ctx, id, func(b *domain.PerishableBatch) error {
		return b.Release(amount, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("stock_released", "Released perishable stock", "", map[string]interface{}{
		"batch_id": id.String(),
		"amount":   amount,
		"reserved": batch.ReservedQuantity,
	})
	return batch, nil
}

func (s *Service) MarkExpired(ctx context.Context, id uuid.UUID) (*domain.PerishableBatch, error) {
	now := s.now()
	return s.batches.Apply(ctx, id, func(b *domain.PerishableBatch) error {
		b.MarkExpired(now)
		return nil
	})
}

// SweepExpired flags every available batch whose expiry date has passed.
// Safe to run concurrently with Reserve: a reservation racing the sweep
// re-checks availability inside its own atomic apply.
func (s *Service) SweepExpired(ctx context.Context, asOf time.Time) (int, error) {
	count, err := s.batches.MarkExpiredBefore(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired stock: %w", err)
	}

	if count > 0 {
		s.logger.Warn("stock_auto_expired", fmt.Sprintf("Marked %d expired batches as unavailable", count), "",
			map[string]interface{}{"expired_count": count})
	}
	return count, nil
}

func (s *Service) ListExpiringWithin(ctx context.Context, days int, warehouseID *uuid.UUID) ([]*domain.PerishableBatch, error) {
	if days < 0 {
		return nil, domain.NewValidationError("days", "days must not be negative")
	}
	threshold := domain.Day(s.now()).AddDate(0, 0, days)
	return s.batches.ListExpiring(ctx, threshold, warehouseID)
}

// RecommendFIFOPriority reports which batches to consume first: available
// stock with unreserved quantity, expiring within five days, oldest first.
func (s *Service) RecommendFIFOPriority(ctx context.Context) ([]*domain.FIFORecommendation, error) {
	now := s.now()
	batches, err := s.batches.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available stock: %w", err)
	}

	var recommendations []*domain.FIFORecommendation
	for _, batch := range batches {
		avail := batch.AvailableQuantity()
		daysLeft := batch.DaysUntilExpiry(now)
		if avail <= 0 || daysLeft > fifoRecommendationDays {
			continue
		}

		priority := domain.StockPriorityMedium
		if daysLeft <= fifoHighPriorityDays {
			priority = domain.StockPriorityHigh
		}
		recommendations = append(recommendations, &domain.FIFORecommendation{
			Batch:             batch,
			AvailableQuantity: avail,
			DaysUntilExpiry:   daysLeft,
			Priority:          priority,
		})
	}

	s.logger.Debug("fifo_recommendations", fmt.Sprintf("Generated %d FIFO recommendations", len(recommendations)), "",
		map[string]interface{}{"batches_reviewed": len(batches)})
	return recommendations, nil
}

// CheckExpiringStock finds batches expiring within daysAhead, groups them by
// warehouse and publishes one alert per warehouse. Publish failures are
// logged, not returned; returns the number of expiring batches found.
func (s *Service) CheckExpiringStock(ctx context.Context, asOf time.Time, daysAhead int) (int, error) {
	threshold := domain.Day(asOf).AddDate(0, 0, daysAhead)
	batches, err := s.batches.ListExpiring(ctx, threshold, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring stock: %w", err)
	}

	byWarehouse := make(map[uuid.UUID][]interfaces.ExpiryAlertItem)
	count := 0
	for _, batch := range batches {
		if batch.Quantity <= 0 {
			continue
		}
		byWarehouse[batch.WarehouseID] = append(byWarehouse[batch.WarehouseID], interfaces.ExpiryAlertItem{
			VariantID:       batch.VariantID,
			BatchNumber:     batch.BatchNumber,
			ExpiryDate:      batch.ExpiryDate,
			Quantity:        batch.Quantity,
			DaysUntilExpiry: batch.DaysUntilExpiry(asOf),
		})
		count++
	}

	for warehouseID, items := range byWarehouse {
		msg := interfaces.ExpiryAlertMessage{
			WarehouseID: warehouseID,
			Items:       items,
			GeneratedAt: asOf,
		}
		if err := s.publisher.PublishExpiryAlert(ctx, msg); err != nil {
			s.logger.Error("expiry_alert_failed", "Failed to publish expiry alert", "",
				map[string]interface{}{"warehouse_id": warehouseID.String()}, err)
		}
	}

	s.logger.Info("expiry_check_completed",
		fmt.Sprintf("Found %d batches expiring within %d days", count, daysAhead), "",
		map[string]interface{}{"expiring_count": count, "warehouses": len(byWarehouse)})
	return count, nil
}
