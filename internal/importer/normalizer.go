package importer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/spreadsheet"
)

// nonNumeric matches every character that cannot appear in a decimal
// amount. Currency symbols, thousands separators and stray text are
// stripped before parsing.
var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// NormalizeRow extracts and coerces the mapped cells of one raw row.
// Absent or uncoercible values stay absent; deciding whether absence is an
// error belongs to the validator.
func NormalizeRow(row []string, mapping models.ColumnMapping, rowNumber int) models.ParsedRow {
	parsed := models.ParsedRow{RowNumber: rowNumber}

	parsed.RecipientName = stringCell(row, mapping, models.FieldRecipientName)
	parsed.IDNumber = stringCell(row, mapping, models.FieldIDNumber)
	parsed.BankCode = stringCell(row, mapping, models.FieldBankCode)
	parsed.BranchCode = stringCell(row, mapping, models.FieldBranchCode)
	parsed.AccountNumber = stringCell(row, mapping, models.FieldAccountNumber)

	if index, ok := mapping[models.FieldAmount]; ok {
		parsed.Amount = numericCell(spreadsheet.Cell(row, index))
	}

	return parsed
}

func stringCell(row []string, mapping models.ColumnMapping, field models.CanonicalField) string {
	index, ok := mapping[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(spreadsheet.Cell(row, index))
}

// numericCell parses a cell as a decimal amount. Text cells are stripped of
// everything except digits, '.' and '-' first, so "1,500.00 ₪" parses as
// 1500. A value that still fails to parse is treated as absent.
func numericCell(value string) *decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	cleaned := nonNumeric.ReplaceAllString(value, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return nil
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &amount
}
