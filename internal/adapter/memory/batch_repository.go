package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodops/localfood/internal/domain"
	"github.com/foodops/localfood/internal/interfaces"
)

// batchRecord pairs the stored batch with the lock that serializes its
// read-modify-write mutations.
type batchRecord struct {
	mu    sync.Mutex
	batch *domain.PerishableBatch
}

// snapshot reads the current batch pointer under the record lock. Stored
// batches are replaced on mutation, never modified in place, so the
// snapshot's fields are stable once the pointer is out.
func (rec *batchRecord) snapshot() *domain.PerishableBatch {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.batch
}

// BatchRepository is an in-memory implementation used by tests and local
// development. Mutations go through per-record locking so that two
// concurrent Reserve calls against the same batch are serialized, matching
// the row-locking behavior of the postgres adapter.
type BatchRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*batchRecord
}

var _ interfaces.BatchRepository = (*BatchRepository)(nil)

func NewBatchRepository() *BatchRepository {
	return &BatchRepository{records: make(map[uuid.UUID]*batchRecord)}
}

func (r *BatchRepository) Create(ctx context.Context, batch *domain.PerishableBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		b := rec.snapshot()
		if b.VariantID == batch.VariantID && b.WarehouseID == batch.WarehouseID && b.BatchNumber == batch.BatchNumber {
			return domain.NewValidationError("batch_number",
				fmt.Sprintf("batch number %q already exists for this product in this warehouse", batch.BatchNumber))
		}
	}

	r.records[batch.ID] = &batchRecord{batch: batch.Clone()}
	return nil
}

func (r *BatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PerishableBatch, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError("perishable stock batch", id.String())
	}

	return rec.snapshot().Clone(), nil
}

func (r *BatchRepository) ExistsBatchNumber(ctx context.Context, variantID, warehouseID uuid.UUID, batchNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		b := rec.snapshot()
		if b.VariantID == variantID && b.WarehouseID == warehouseID && b.BatchNumber == batchNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *BatchRepository) Apply(ctx context.Context, id uuid.UUID, mutate func(*domain.PerishableBatch) error) (*domain.PerishableBatch, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError("perishable stock batch", id.String())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	// Mutate a copy so a failed validation leaves no partial state.
	updated := rec.batch.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	rec.batch = updated
	return updated.Clone(), nil
}

func (r *BatchRepository) ListExpiring(ctx context.Context, byDate time.Time, warehouseID *uuid.UUID) ([]*domain.PerishableBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var batches []*domain.PerishableBatch
	for _, rec := range r.records {
		b := rec.snapshot()
		if !b.IsAvailable || b.ExpiryDate.After(domain.Day(byDate)) {
			continue
		}
		if warehouseID != nil && b.WarehouseID != *warehouseID {
			continue
		}
		batches = append(batches, b.Clone())
	}
	sortFIFO(batches)
	return batches, nil
}

func (r *BatchRepository) ListAvailable(ctx context.Context) ([]*domain.PerishableBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var batches []*domain.PerishableBatch
	for _, rec := range r.records {
		if b := rec.snapshot(); b.IsAvailable {
			batches = append(batches, b.Clone())
		}
	}
	sortFIFO(batches)
	return batches, nil
}

func (r *BatchRepository) MarkExpiredBefore(ctx context.Context, asOf time.Time) (int, error) {
	r.mu.RLock()
	records := make([]*batchRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	count := 0
	for _, rec := range records {
		rec.mu.Lock()
		if rec.batch.IsAvailable && rec.batch.ExpiryDate.Before(domain.Day(asOf)) {
			updated := rec.batch.Clone()
			updated.MarkExpired(asOf)
			rec.batch = updated
			count++
		}
		rec.mu.Unlock()
	}
	return count, nil
}

// sortFIFO orders batches oldest-expiry first, receipt date as tie-break.
func sortFIFO(batches []*domain.PerishableBatch) {
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].ExpiryDate.Equal(batches[j].ExpiryDate) {
			return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
		}
		return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
	})
}
