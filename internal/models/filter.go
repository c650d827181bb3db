package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ListFilter narrows a transfer listing. Nil/zero members are ignored.
type ListFilter struct {
	Status           *TransferStatus
	DateFrom         *time.Time
	DateTo           *time.Time
	AmountMin        *decimal.Decimal
	AmountMax        *decimal.Decimal
	Search           string // substring match on recipient name, case-insensitive
	ImportedFromFile string
}

// Matches reports whether the record passes every set filter member.
func (f ListFilter) Matches(t TransferRecord) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && t.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.AmountMin != nil && t.Amount.LessThan(*f.AmountMin) {
		return false
	}
	if f.AmountMax != nil && t.Amount.GreaterThan(*f.AmountMax) {
		return false
	}
	if f.Search != "" && !containsFold(t.RecipientName, f.Search) {
		return false
	}
	if f.ImportedFromFile != "" && t.ImportedFromFile != f.ImportedFromFile {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// BulkFailure is the typed reason a single row of a bulk create was rejected.
type BulkFailure struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BulkOutcome is the per-input-index result of a bulk create: either the
// created record or a typed failure, never both, never neither.
type BulkOutcome struct {
	Index   int             `json:"index"`
	Record  *TransferRecord `json:"record,omitempty"`
	Failure *BulkFailure    `json:"failure,omitempty"`
}

// StatusBreakdown aggregates count and amount for one lifecycle state.
type StatusBreakdown struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ImportSource summarizes one source spreadsheet's contribution.
type ImportSource struct {
	Filename string    `json:"filename"`
	Count    int       `json:"count"`
	Date     time.Time `json:"date"`
}

// Summary aggregates the transfer population for reporting.
type Summary struct {
	TotalCount    int                                `json:"total_count"`
	TotalAmount   decimal.Decimal                    `json:"total_amount"`
	ByStatus      map[TransferStatus]StatusBreakdown `json:"by_status"`
	RecentImports []ImportSource                     `json:"recent_imports"`
}
