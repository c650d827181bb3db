package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"hesed/masav-batch/internal/models"
)

// FileRepository is a MemoryRepository persisted to a YAML file after every
// mutation. It is the default store driver: a CLI run imports transfers, a
// later run exports them, and the file is what connects the two.
type FileRepository struct {
	*MemoryRepository
	path string
}

// transferSnapshot is the YAML form of one record. Amounts are stored as
// strings so the file stays exact and human-readable.
type transferSnapshot struct {
	ID               string     `yaml:"id"`
	RecipientName    string     `yaml:"recipient_name"`
	IDNumber         string     `yaml:"id_number,omitempty"`
	BankCode         string     `yaml:"bank_code"`
	BranchCode       string     `yaml:"branch_code"`
	AccountNumber    string     `yaml:"account_number"`
	Amount           string     `yaml:"amount"`
	Status           string     `yaml:"status"`
	ImportedFromFile string     `yaml:"imported_from_file,omitempty"`
	CreatedAt        time.Time  `yaml:"created_at"`
	ExportedAt       *time.Time `yaml:"exported_at,omitempty"`
}

// NewFileRepository loads the store file if it exists and returns a
// repository that rewrites the file after every change.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		MemoryRepository: NewMemoryRepository(),
		path:             path,
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-configured store file
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading store file: %w", err)
	}

	var snapshots []transferSnapshot
	if err := yaml.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("error parsing store file %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range snapshots {
		record, err := s.toRecord()
		if err != nil {
			return nil, fmt.Errorf("invalid record %s in store file: %w", s.ID, err)
		}
		r.transfers[record.ID] = record
	}
	return r, nil
}

func (r *FileRepository) Create(ctx context.Context, record models.TransferRecord) (*models.TransferRecord, error) {
	created, err := r.MemoryRepository.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, r.persist(ctx)
}

func (r *FileRepository) BulkCreate(ctx context.Context, records []models.TransferRecord) ([]models.BulkOutcome, error) {
	outcomes, err := r.MemoryRepository.BulkCreate(ctx, records)
	if err != nil {
		return nil, err
	}
	return outcomes, r.persist(ctx)
}

func (r *FileRepository) Update(ctx context.Context, id string, patch TransferPatch) (*models.TransferRecord, error) {
	updated, err := r.MemoryRepository.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return updated, r.persist(ctx)
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	if err := r.MemoryRepository.Delete(ctx, id); err != nil {
		return err
	}
	return r.persist(ctx)
}

func (r *FileRepository) TransitionStatus(ctx context.Context, ids []string, newStatus models.TransferStatus) ([]models.TransferRecord, error) {
	moved, err := r.MemoryRepository.TransitionStatus(ctx, ids, newStatus)
	if err != nil {
		return nil, err
	}
	return moved, r.persist(ctx)
}

// persist rewrites the store file from the current state, oldest record
// first so diffs stay stable.
func (r *FileRepository) persist(ctx context.Context) error {
	transfers, err := r.MemoryRepository.List(ctx, models.ListFilter{})
	if err != nil {
		return err
	}

	snapshots := make([]transferSnapshot, len(transfers))
	for i, t := range transfers {
		snapshots[len(transfers)-1-i] = snapshotOf(t)
	}

	data, err := yaml.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("error encoding store file: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("error writing store file: %w", err)
	}
	return nil
}

func snapshotOf(t models.TransferRecord) transferSnapshot {
	return transferSnapshot{
		ID:               t.ID,
		RecipientName:    t.RecipientName,
		IDNumber:         t.IDNumber,
		BankCode:         t.BankCode,
		BranchCode:       t.BranchCode,
		AccountNumber:    t.AccountNumber,
		Amount:           t.Amount.StringFixed(2),
		Status:           string(t.Status),
		ImportedFromFile: t.ImportedFromFile,
		CreatedAt:        t.CreatedAt,
		ExportedAt:       t.ExportedAt,
	}
}

func (s transferSnapshot) toRecord() (models.TransferRecord, error) {
	amount, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return models.TransferRecord{}, fmt.Errorf("invalid amount %q: %w", s.Amount, err)
	}
	status, err := models.ParseStatus(s.Status)
	if err != nil {
		return models.TransferRecord{}, err
	}
	return models.TransferRecord{
		ID:               s.ID,
		RecipientName:    s.RecipientName,
		IDNumber:         s.IDNumber,
		BankCode:         s.BankCode,
		BranchCode:       s.BranchCode,
		AccountNumber:    s.AccountNumber,
		Amount:           amount,
		Status:           status,
		ImportedFromFile: s.ImportedFromFile,
		CreatedAt:        s.CreatedAt,
		ExportedAt:       s.ExportedAt,
	}, nil
}
