// Package models defines the core data types shared by the import pipeline,
// the MASAV encoder and the transfer repository.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus is the lifecycle state of a transfer record.
// The progression is pending -> selected -> exported; exported is terminal.
type TransferStatus string

const (
	StatusPending  TransferStatus = "pending"
	StatusSelected TransferStatus = "selected"
	StatusExported TransferStatus = "exported"
)

// ParseStatus converts a string to a TransferStatus.
func ParseStatus(s string) (TransferStatus, error) {
	switch TransferStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusSelected:
		return StatusSelected, nil
	case StatusExported:
		return StatusExported, nil
	}
	return "", fmt.Errorf("unknown transfer status: %q", s)
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s TransferStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSelected, StatusExported:
		return true
	}
	return false
}

// IsExportable reports whether a record in this status may be encoded into a
// MASAV file. Both pending and selected records are exportable.
func (s TransferStatus) IsExportable() bool {
	return s == StatusPending || s == StatusSelected
}

// IsTerminal reports whether the status permits no further transition.
func (s TransferStatus) IsTerminal() bool {
	return s == StatusExported
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// transition. Selected may move back to pending (it is a staging state); no
// transition leaves exported.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusSelected || next == StatusExported
	case StatusSelected:
		return next == StatusPending || next == StatusExported
	case StatusExported:
		return false
	}
	return false
}

// TransferRecord is one recipient payment instruction.
type TransferRecord struct {
	ID               string          `json:"id" csv:"id"`
	RecipientName    string          `json:"recipient_name" csv:"recipient_name"`
	IDNumber         string          `json:"id_number,omitempty" csv:"id_number"`
	BankCode         string          `json:"bank_code" csv:"bank_code"`
	BranchCode       string          `json:"branch_code" csv:"branch_code"`
	AccountNumber    string          `json:"account_number" csv:"account_number"`
	Amount           decimal.Decimal `json:"amount" csv:"amount"`
	Status           TransferStatus  `json:"status" csv:"status"`
	ImportedFromFile string          `json:"imported_from_file,omitempty" csv:"imported_from_file"`
	CreatedAt        time.Time       `json:"created_at" csv:"created_at"`
	ExportedAt       *time.Time      `json:"exported_at,omitempty" csv:"-"`
}

// NewTransferRecord creates a pending transfer with a fresh id.
func NewTransferRecord(fields TransferFields, sourceFile string) TransferRecord {
	return TransferRecord{
		ID:               uuid.New().String(),
		RecipientName:    fields.RecipientName,
		IDNumber:         fields.IDNumber,
		BankCode:         fields.BankCode,
		BranchCode:       fields.BranchCode,
		AccountNumber:    fields.AccountNumber,
		Amount:           fields.Amount,
		Status:           StatusPending,
		ImportedFromFile: sourceFile,
		CreatedAt:        time.Now(),
	}
}

// DuplicateKey identifies a payment instruction for duplicate detection.
// Two non-exported records sharing this key are considered the same
// instruction and must not be silently duplicated.
func (t TransferRecord) DuplicateKey() string {
	return fmt.Sprintf("%s|%s|%s|%s",
		t.BankCode, t.BranchCode, t.AccountNumber, t.Amount.StringFixed(2))
}

// IsEditable reports whether the record may still be modified or deleted.
// Exported records are append-only history.
func (t TransferRecord) IsEditable() bool {
	return !t.Status.IsTerminal()
}
