package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newStoredBatch(t *testing.T, repo *BatchRepository, quantity int) *domain.PerishableBatch {
	t.Helper()

	batch, err := domain.NewPerishableBatch(uuid.New(), uuid.New(), "BATCH-001",
		testNow.AddDate(0, 0, 10), quantity, "", testNow)
	if err != nil {
		t.Fatalf("Failed to create batch: %v", err)
	}
	if err := repo.Create(context.Background(), batch); err != nil {
		t.Fatalf("Failed to store batch: %v", err)
	}
	return batch
}

func TestBatchRepository_ListDuringConcurrentApply(t *testing.T) {
	repo := NewBatchRepository()
	ctx := context.Background()
	batch := newStoredBatch(t, repo, 1000)

	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_, err := repo.Apply(ctx, batch.ID, func(b *domain.PerishableBatch) error {
				return b.Reserve(1, testNow)
			})
			if err != nil {
				t.Errorf("Apply failed: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if _, err := repo.ListAvailable(ctx); err != nil {
				t.Errorf("ListAvailable failed: %v", err)
				return
			}
			if _, err := repo.ListExpiring(ctx, testNow.AddDate(0, 0, 30), nil); err != nil {
				t.Errorf("ListExpiring failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()

	stored, err := repo.FindByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.ReservedQuantity != iterations {
		t.Errorf("Expected %d reserved, got %d", iterations, stored.ReservedQuantity)
	}
}

func TestBatchRepository_CreateChecksUniquenessDuringApply(t *testing.T) {
	repo := NewBatchRepository()
	ctx := context.Background()
	batch := newStoredBatch(t, repo, 100)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = repo.Apply(ctx, batch.ID, func(b *domain.PerishableBatch) error {
				return b.Reserve(1, testNow)
			})
		}
	}()

	for i := 0; i < 100; i++ {
		dup, err := domain.NewPerishableBatch(batch.VariantID, batch.WarehouseID, batch.BatchNumber,
			testNow.AddDate(0, 0, 10), 10, "", testNow)
		if err != nil {
			t.Fatalf("Failed to create batch: %v", err)
		}
		if err := repo.Create(ctx, dup); !domain.IsValidation(err) {
			t.Fatalf("Expected duplicate batch number to be rejected, got %v", err)
		}
	}
	wg.Wait()
}
