// Package repository persists transfer records. It is the authoritative
// guard for the uniqueness constraint on non-exported payment instructions
// and for the conditional status transitions of the transfer lifecycle.
package repository

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"hesed/masav-batch/internal/models"
)

// TransferPatch carries the updatable fields of a transfer. Nil members are
// left unchanged. Status is not patchable; it only moves through
// TransitionStatus.
type TransferPatch struct {
	RecipientName *string
	IDNumber      *string
	BankCode      *string
	BranchCode    *string
	AccountNumber *string
	Amount        *decimal.Decimal
}

// Repository is the persistence contract consumed by the import and export
// pipelines.
type Repository interface {
	// List returns the transfers matching the filter, newest first.
	List(ctx context.Context, filter models.ListFilter) ([]models.TransferRecord, error)

	// GetByID returns one transfer or a NotFoundError.
	GetByID(ctx context.Context, id string) (*models.TransferRecord, error)

	// Create persists a single record. A non-exported record with the same
	// payment key yields a ConflictError.
	Create(ctx context.Context, record models.TransferRecord) (*models.TransferRecord, error)

	// BulkCreate persists records best-effort: a failing row never rolls
	// back the rows that succeeded. The outcome slice is parallel to the
	// input, one entry per index.
	BulkCreate(ctx context.Context, records []models.TransferRecord) ([]models.BulkOutcome, error)

	// Update patches a non-exported record. Exported records are immutable.
	Update(ctx context.Context, id string, patch TransferPatch) (*models.TransferRecord, error)

	// Delete removes a non-exported record. Exported records are history.
	Delete(ctx context.Context, id string) error

	// TransitionStatus atomically moves every id whose current status
	// legally transitions to newStatus, and returns the records it moved.
	// Ids that are missing or ineligible are skipped, not errors: the
	// caller compares len(result) against len(ids). Transitioning to
	// exported stamps ExportedAt.
	TransitionStatus(ctx context.Context, ids []string, newStatus models.TransferStatus) ([]models.TransferRecord, error)

	// Close releases any underlying resources.
	Close()
}

// eligibleCurrent returns the statuses a record may hold for a transition
// to newStatus to be legal.
func eligibleCurrent(newStatus models.TransferStatus) []models.TransferStatus {
	var eligible []models.TransferStatus
	for _, s := range []models.TransferStatus{models.StatusPending, models.StatusSelected, models.StatusExported} {
		if s.CanTransitionTo(newStatus) {
			eligible = append(eligible, s)
		}
	}
	return eligible
}

// Summarize aggregates the whole transfer population: counts and amounts by
// status plus the most recent import files.
func Summarize(ctx context.Context, repo Repository) (*models.Summary, error) {
	transfers, err := repo.List(ctx, models.ListFilter{})
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		TotalAmount: decimal.Zero,
		ByStatus:    map[models.TransferStatus]models.StatusBreakdown{},
	}
	for _, s := range []models.TransferStatus{models.StatusPending, models.StatusSelected, models.StatusExported} {
		summary.ByStatus[s] = models.StatusBreakdown{Amount: decimal.Zero}
	}

	imports := map[string]*models.ImportSource{}
	for _, t := range transfers {
		summary.TotalCount++
		summary.TotalAmount = summary.TotalAmount.Add(t.Amount)

		b := summary.ByStatus[t.Status]
		b.Count++
		b.Amount = b.Amount.Add(t.Amount)
		summary.ByStatus[t.Status] = b

		if t.ImportedFromFile != "" {
			src, ok := imports[t.ImportedFromFile]
			if !ok {
				src = &models.ImportSource{Filename: t.ImportedFromFile, Date: t.CreatedAt}
				imports[t.ImportedFromFile] = src
			}
			src.Count++
			if t.CreatedAt.After(src.Date) {
				src.Date = t.CreatedAt
			}
		}
	}

	for _, src := range imports {
		summary.RecentImports = append(summary.RecentImports, *src)
	}
	sort.Slice(summary.RecentImports, func(i, j int) bool {
		return summary.RecentImports[i].Date.After(summary.RecentImports[j].Date)
	})
	if len(summary.RecentImports) > 5 {
		summary.RecentImports = summary.RecentImports[:5]
	}

	return summary, nil
}
