package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
)

// MemoryRepository is an in-process Repository used by the CLI's default
// store driver and by tests. All operations run under one mutex, which
// makes TransitionStatus atomic by construction.
type MemoryRepository struct {
	mu        sync.Mutex
	transfers map[string]models.TransferRecord
	now       func() time.Time
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		transfers: map[string]models.TransferRecord{},
		now:       time.Now,
	}
}

// SetClock replaces the repository clock, letting tests control the
// exported_at timestamp.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryRepository) List(_ context.Context, filter models.ListFilter) ([]models.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TransferRecord
	for _, t := range r.transfers {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transfers[id]
	if !ok {
		return nil, &pipelineerror.NotFoundError{ID: id}
	}
	return &t, nil
}

func (r *MemoryRepository) Create(_ context.Context, record models.TransferRecord) (*models.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(record)
}

// createLocked enforces the uniqueness constraint on non-exported payment
// keys. Callers must hold r.mu.
func (r *MemoryRepository) createLocked(record models.TransferRecord) (*models.TransferRecord, error) {
	key := record.DuplicateKey()
	for _, existing := range r.transfers {
		if existing.Status != models.StatusExported && existing.DuplicateKey() == key {
			return nil, &pipelineerror.ConflictError{Key: key}
		}
	}
	r.transfers[record.ID] = record
	created := record
	return &created, nil
}

func (r *MemoryRepository) BulkCreate(_ context.Context, records []models.TransferRecord) ([]models.BulkOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make([]models.BulkOutcome, len(records))
	for i, record := range records {
		created, err := r.createLocked(record)
		if err != nil {
			outcomes[i] = models.BulkOutcome{
				Index: i,
				Failure: &models.BulkFailure{
					Code:    models.ErrCodePersistenceConflict,
					Message: err.Error(),
				},
			}
			continue
		}
		outcomes[i] = models.BulkOutcome{Index: i, Record: created}
	}
	return outcomes, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, patch TransferPatch) (*models.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transfers[id]
	if !ok {
		return nil, &pipelineerror.NotFoundError{ID: id}
	}
	if t.Status.IsTerminal() {
		return nil, &pipelineerror.ImmutableError{ID: id}
	}

	if patch.RecipientName != nil {
		t.RecipientName = *patch.RecipientName
	}
	if patch.IDNumber != nil {
		t.IDNumber = *patch.IDNumber
	}
	if patch.BankCode != nil {
		t.BankCode = *patch.BankCode
	}
	if patch.BranchCode != nil {
		t.BranchCode = *patch.BranchCode
	}
	if patch.AccountNumber != nil {
		t.AccountNumber = *patch.AccountNumber
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}

	r.transfers[id] = t
	updated := t
	return &updated, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transfers[id]
	if !ok {
		return &pipelineerror.NotFoundError{ID: id}
	}
	if t.Status.IsTerminal() {
		return &pipelineerror.ImmutableError{ID: id}
	}
	delete(r.transfers, id)
	return nil
}

func (r *MemoryRepository) TransitionStatus(_ context.Context, ids []string, newStatus models.TransferStatus) ([]models.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var moved []models.TransferRecord
	for _, id := range ids {
		t, ok := r.transfers[id]
		if !ok || !t.Status.CanTransitionTo(newStatus) {
			continue
		}
		t.Status = newStatus
		if newStatus == models.StatusExported {
			exportedAt := r.now()
			t.ExportedAt = &exportedAt
		}
		r.transfers[id] = t
		moved = append(moved, t)
	}
	return moved, nil
}

func (r *MemoryRepository) Close() {}
