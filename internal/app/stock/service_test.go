package stock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/adapter/logger"
	"github.com/foodops/localfood/internal/adapter/memory"
	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fakePublisher records published alerts for inspection.
type fakePublisher struct {
	mu       sync.Mutex
	messages []interfaces.ExpiryAlertMessage
	fail     bool
}

func (p *fakePublisher) PublishExpiryAlert(ctx context.Context, msg interfaces.ExpiryAlertMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return context.DeadlineExceeded
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.BatchRepository, *fakePublisher) {
	t.Helper()
	repo := memory.NewBatchRepository()
	pub := &fakePublisher{}
	svc := NewService(repo, pub, logger.Noop()).WithClock(func() time.Time { return testNow })
	return svc, repo, pub
}

func createBatch(t *testing.T, svc *Service, warehouseID uuid.UUID, batchNumber string, quantity, expiryInDays int) *domain.PerishableBatch {
	t.Helper()
	batch, err := svc.CreateBatch(context.Background(), interfaces.CreateBatchCommand{
		VariantID:   uuid.New(),
		WarehouseID: warehouseID,
		BatchNumber: batchNumber,
		ExpiryDate:  testNow.AddDate(0, 0, expiryInDays),
		Quantity:    quantity,
	})
	if err != nil {
		t.Fatalf("Failed to create batch %s: %v", batchNumber, err)
	}
	return batch
}

func TestCreateBatch_DuplicateBatchNumber(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	variantID := uuid.New()
	warehouseID := uuid.New()
	cmd := interfaces.CreateBatchCommand{
		VariantID:   variantID,
		WarehouseID: warehouseID,
		BatchNumber: "LOT-1",
		ExpiryDate:  testNow.AddDate(0, 0, 10),
		Quantity:    50,
	}

	if _, err := svc.CreateBatch(ctx, cmd); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	if _, err := svc.CreateBatch(ctx, cmd); !domain.IsValidation(err) {
		t.Fatalf("Expected validation error on duplicate batch number, got %v", err)
	}

	// Same batch number in another warehouse is fine.
	cmd.WarehouseID = uuid.New()
	if _, err := svc.CreateBatch(ctx, cmd); err != nil {
		t.Errorf("Same batch number in a different warehouse must be accepted: %v", err)
	}
}

func TestReserve_ConcurrentReservationsNeverOverreserve(t *testing.T) {
	svc, _, _ := newTestService(t)
	batch := createBatch(t, svc, uuid.New(), "LOT-1", 100, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(), batch.ID, 60)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !domain.IsValidation(err) {
			t.Errorf("Expected validation error for the losing reservation, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("Expected exactly one of two 60-unit reservations on 100 units to succeed, got %d", succeeded)
	}

	final, err := svc.Reserve(context.Background(), batch.ID, 40)
	if err != nil {
		t.Fatalf("Reserving the remainder failed: %v", err)
	}
	if final.ReservedQuantity != 100 {
		t.Errorf("Expected 100 reserved, got %d", final.ReservedQuantity)
	}
}

func TestReserveRelease_RoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	batch := createBatch(t, svc, uuid.New(), "LOT-1", 50, 10)
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, batch.ID, 30); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	updated, err := svc.Release(ctx, batch.ID, 30)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if updated.AvailableQuantity() != 50 {
		t.Errorf("Expected 50 available after round trip, got %d", updated.AvailableQuantity())
	}
}

func TestSweepExpired_Idempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	createBatch(t, svc, uuid.New(), "LOT-1", 10, 2)
	createBatch(t, svc, uuid.New(), "LOT-2", 10, 30)
	ctx := context.Background()

	asOf := testNow.AddDate(0, 0, 5)
	count, err := svc.SweepExpired(ctx, asOf)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 batch swept, got %d", count)
	}

	// A second sweep at the same instant finds nothing left to do.
	count, err = svc.SweepExpired(ctx, asOf)
	if err != nil {
		t.Fatalf("Second SweepExpired failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected idempotent sweep to flag 0 batches, got %d", count)
	}
}

func TestMarkExpired_BlocksFutureReservations(t *testing.T) {
	svc, _, _ := newTestService(t)
	batch := createBatch(t, svc, uuid.New(), "LOT-1", 10, 10)
	ctx := context.Background()

	if _, err := svc.MarkExpired(ctx, batch.ID); err != nil {
		t.Fatalf("MarkExpired failed: %v", err)
	}
	if _, err := svc.Reserve(ctx, batch.ID, 1); !domain.IsValidation(err) {
		t.Errorf("Expected reservation from unavailable stock to fail, got %v", err)
	}
}

func TestRecommendFIFOPriority(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	urgent := createBatch(t, svc, uuid.New(), "URGENT", 20, 1)
	soon := createBatch(t, svc, uuid.New(), "SOON", 20, 4)
	createBatch(t, svc, uuid.New(), "LATER", 20, 30)

	fullyReserved := createBatch(t, svc, uuid.New(), "RESERVED", 10, 1)
	if _, err := svc.Reserve(ctx, fullyReserved.ID, 10); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	recs, err := svc.RecommendFIFOPriority(ctx)
	if err != nil {
		t.Fatalf("RecommendFIFOPriority failed: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Batch.ID != urgent.ID {
		t.Errorf("Expected soonest-expiring batch first, got %s", recs[0].Batch.BatchNumber)
	}
	if recs[0].Priority != domain.StockPriorityHigh {
		t.Errorf("Expected HIGH priority for 1-day batch, got %s", recs[0].Priority)
	}
	if recs[1].Batch.ID != soon.ID {
		t.Errorf("Expected 4-day batch second, got %s", recs[1].Batch.BatchNumber)
	}
	if recs[1].Priority != domain.StockPriorityMedium {
		t.Errorf("Expected MEDIUM priority for 4-day batch, got %s", recs[1].Priority)
	}
}

func TestCheckExpiringStock_GroupsByWarehouse(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	warehouseA := uuid.New()
	warehouseB := uuid.New()
	createBatch(t, svc, warehouseA, "A-1", 10, 1)
	createBatch(t, svc, warehouseA, "A-2", 10, 2)
	createBatch(t, svc, warehouseB, "B-1", 10, 3)
	createBatch(t, svc, warehouseB, "B-LATER", 10, 30)

	count, err := svc.CheckExpiringStock(ctx, testNow, 3)
	if err != nil {
		t.Fatalf("CheckExpiringStock failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected 3 expiring batches, got %d", count)
	}

	if len(pub.messages) != 2 {
		t.Fatalf("Expected one alert per warehouse, got %d", len(pub.messages))
	}
	itemsByWarehouse := make(map[uuid.UUID]int)
	for _, msg := range pub.messages {
		itemsByWarehouse[msg.WarehouseID] = len(msg.Items)
	}
	if itemsByWarehouse[warehouseA] != 2 || itemsByWarehouse[warehouseB] != 1 {
		t.Errorf("Unexpected grouping: %v", itemsByWarehouse)
	}
}

func TestCheckExpiringStock_PublishFailureIsNotFatal(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.fail = true

	createBatch(t, svc, uuid.New(), "A-1", 10, 1)

	count, err := svc.CheckExpiringStock(context.Background(), testNow, 3)
	if err != nil {
		t.Fatalf("Publish failure must not fail the check: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1 despite publish failure, got %d", count)
	}
}

func TestListExpiringWithin_RejectsNegativeDays(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.ListExpiringWithin(context.Background(), -1, nil); !domain.IsValidation(err) {
		t.Errorf("Expected validation error for negative days, got %v", err)
	}
}
