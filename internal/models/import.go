package models

import (
	"github.com/shopspring/decimal"
)

// CanonicalField names one logical column of the import spreadsheet.
type CanonicalField string

const (
	FieldRecipientName CanonicalField = "recipient_name"
	FieldIDNumber      CanonicalField = "id_number"
	FieldAmount        CanonicalField = "amount"
	FieldBankCode      CanonicalField = "bank_code"
	FieldBranchCode    CanonicalField = "branch_code"
	FieldAccountNumber CanonicalField = "account_number"
)

// RequiredFields lists the canonical fields an import cannot proceed without.
// IDNumber is the only optional column.
var RequiredFields = []CanonicalField{
	FieldRecipientName,
	FieldAmount,
	FieldBankCode,
	FieldBranchCode,
	FieldAccountNumber,
}

// ColumnMapping maps canonical fields to zero-based spreadsheet column
// indexes. It is transient state, valid for a single import.
type ColumnMapping map[CanonicalField]int

// MissingRequired returns the required fields absent from the mapping.
func (m ColumnMapping) MissingRequired() []CanonicalField {
	var missing []CanonicalField
	for _, f := range RequiredFields {
		if _, ok := m[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// ErrorCode is a stable machine-readable code attached to every import
// failure so downstream reporting never has to parse message text.
type ErrorCode string

const (
	// Row-level codes
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidFormat        ErrorCode = "INVALID_FORMAT"
	ErrCodeEmptyRow             ErrorCode = "EMPTY_ROW"
	ErrCodeDuplicateTransfer    ErrorCode = "DUPLICATE_TRANSFER"

	// Structural codes, attached to row number 0
	ErrCodeParseError     ErrorCode = "PARSE_ERROR"
	ErrCodeMissingColumns ErrorCode = "MISSING_COLUMNS"

	// Commit-time codes
	ErrCodePersistenceConflict ErrorCode = "PERSISTENCE_CONFLICT"
	ErrCodeInactiveRecipient   ErrorCode = "INACTIVE_RECIPIENT"
)

// ParsedRow carries the raw extracted field values of one spreadsheet row
// before validation. Absent cells stay absent; the validator decides whether
// absence is an error.
type ParsedRow struct {
	// RowNumber is the spreadsheet row (1-based, header excluded, so the
	// first data row is 2) used in error reporting.
	RowNumber     int
	RecipientName string
	IDNumber      string
	Amount        *decimal.Decimal
	BankCode      string
	BranchCode    string
	AccountNumber string
}

// IsEmpty reports whether no field of the row is populated at all.
func (r ParsedRow) IsEmpty() bool {
	return r.RecipientName == "" &&
		r.IDNumber == "" &&
		r.Amount == nil &&
		r.BankCode == "" &&
		r.BranchCode == "" &&
		r.AccountNumber == ""
}

// RawData returns the row's extracted values keyed by canonical field name,
// for inclusion in the error report.
func (r ParsedRow) RawData() map[string]string {
	data := map[string]string{
		string(FieldRecipientName): r.RecipientName,
		string(FieldIDNumber):      r.IDNumber,
		string(FieldBankCode):      r.BankCode,
		string(FieldBranchCode):    r.BranchCode,
		string(FieldAccountNumber): r.AccountNumber,
	}
	if r.Amount != nil {
		data[string(FieldAmount)] = r.Amount.String()
	}
	return data
}

// TransferFields is the normalized, validated field set of one row, ready to
// become a TransferRecord.
type TransferFields struct {
	RecipientName string
	IDNumber      string
	Amount        decimal.Decimal
	BankCode      string
	BranchCode    string
	AccountNumber string
}

// FieldError is a single rule violation on one field of one row.
type FieldError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RowValidationResult is the outcome of validating one parsed row. On
// success Fields is set; on failure Errors is non-empty.
type RowValidationResult struct {
	RowNumber int
	Valid     bool
	Empty     bool
	Fields    *TransferFields
	Errors    []FieldError
}

// ImportError is one reportable failure of an import, flattened for the
// error report: one entry per violated rule per row. Structural failures use
// row number 0.
type ImportError struct {
	RowNumber int               `json:"row_number" csv:"row_number"`
	Field     string            `json:"field,omitempty" csv:"field"`
	Code      ErrorCode         `json:"code" csv:"code"`
	Message   string            `json:"message" csv:"message"`
	RawData   map[string]string `json:"raw_data,omitempty" csv:"-"`
}

// ImportResult is the aggregate outcome of one import run. It is a report,
// not a persisted object: Transfers are candidates the caller may commit.
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"total_rows"`
	ValidRows    int              `json:"valid_rows"`
	InvalidRows  int              `json:"invalid_rows"`
	SkippedEmpty int              `json:"skipped_empty"`
	Transfers    []TransferRecord `json:"transfers"`
	Errors       []ImportError    `json:"errors"`
	Warnings     []string         `json:"warnings"`
	Filename     string           `json:"filename"`
}
