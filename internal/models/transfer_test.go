package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected TransferStatus
		hasError bool
	}{
		{"Pending", "pending", StatusPending, false},
		{"Selected", "selected", StatusSelected, false},
		{"Exported", "exported", StatusExported, false},
		{"Mixed case", "Pending", StatusPending, false},
		{"Surrounding spaces", "  exported ", StatusExported, false},
		{"Unknown", "archived", "", true},
		{"Empty", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, err := ParseStatus(tc.input)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, status)
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    TransferStatus
		to      TransferStatus
		allowed bool
	}{
		{"Pending to selected", StatusPending, StatusSelected, true},
		{"Pending to exported", StatusPending, StatusExported, true},
		{"Selected back to pending", StatusSelected, StatusPending, true},
		{"Selected to exported", StatusSelected, StatusExported, true},
		{"Exported to pending", StatusExported, StatusPending, false},
		{"Exported to selected", StatusExported, StatusSelected, false},
		{"Pending to pending", StatusPending, StatusPending, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPending.IsExportable())
	assert.True(t, StatusSelected.IsExportable())
	assert.False(t, StatusExported.IsExportable())

	assert.True(t, StatusExported.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())

	assert.False(t, TransferStatus("archived").IsValid())
	assert.True(t, StatusSelected.IsValid())
}

func TestNewTransferRecord(t *testing.T) {
	fields := TransferFields{
		RecipientName: "ישראל ישראלי",
		IDNumber:      "123456789",
		Amount:        decimal.NewFromInt(1500),
		BankCode:      "12",
		BranchCode:    "345",
		AccountNumber: "678901",
	}

	record := NewTransferRecord(fields, "upload.xlsx")

	require.NotEmpty(t, record.ID)
	assert.Equal(t, StatusPending, record.Status)
	assert.Equal(t, "upload.xlsx", record.ImportedFromFile)
	assert.Equal(t, fields.RecipientName, record.RecipientName)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Nil(t, record.ExportedAt)

	other := NewTransferRecord(fields, "upload.xlsx")
	assert.NotEqual(t, record.ID, other.ID)
}

func TestDuplicateKey(t *testing.T) {
	base := TransferRecord{
		BankCode:      "12",
		BranchCode:    "345",
		AccountNumber: "678901",
		Amount:        decimal.NewFromFloat(100.5),
	}
	assert.Equal(t, "12|345|678901|100.50", base.DuplicateKey())

	same := base
	same.Amount = decimal.RequireFromString("100.500")
	assert.Equal(t, base.DuplicateKey(), same.DuplicateKey())

	different := base
	different.Amount = decimal.NewFromFloat(100.51)
	assert.NotEqual(t, base.DuplicateKey(), different.DuplicateKey())
}

func TestColumnMappingMissingRequired(t *testing.T) {
	full := ColumnMapping{
		FieldRecipientName: 0,
		FieldAmount:        1,
		FieldBankCode:      2,
		FieldBranchCode:    3,
		FieldAccountNumber: 4,
	}
	assert.Empty(t, full.MissingRequired())

	partial := ColumnMapping{FieldRecipientName: 0, FieldAmount: 1}
	missing := partial.MissingRequired()
	assert.ElementsMatch(t,
		[]CanonicalField{FieldBankCode, FieldBranchCode, FieldAccountNumber}, missing)

	// id_number is optional and never reported missing.
	withoutID := ColumnMapping{}
	for _, f := range RequiredFields {
		withoutID[f] = 0
	}
	assert.Empty(t, withoutID.MissingRequired())
}
