package importer

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"hesed/masav-batch/internal/fielddict"
	"hesed/masav-batch/internal/models"
)

// Field format rules. Branch codes are exactly 3 digits and account numbers
// 2-20 digits; the MASAV detail record caps bank codes at 2 digits. National
// ids only need to be numeric, since legitimate ids mix formats beyond that.
var (
	bankCodeRe      = regexp.MustCompile(`^[0-9]{1,2}$`)
	branchCodeRe    = regexp.MustCompile(`^[0-9]{3}$`)
	accountNumberRe = regexp.MustCompile(`^[0-9]{2,20}$`)
	idNumberRe      = regexp.MustCompile(`^[0-9]+$`)
)

// maxAmount is the largest value the 13-digit agorot field of a MASAV
// detail record can carry.
var maxAmount = decimal.RequireFromString("9999999999.99")

// ValidateRow applies every field rule to a parsed row and collects all
// violations. A row with no populated field at all is marked Empty and
// excluded from the valid/invalid counts.
func ValidateRow(row models.ParsedRow) models.RowValidationResult {
	if row.IsEmpty() {
		return models.RowValidationResult{
			RowNumber: row.RowNumber,
			Empty:     true,
			Errors: []models.FieldError{{
				Field:   "all",
				Code:    models.ErrCodeEmptyRow,
				Message: "row has no populated cells",
			}},
		}
	}

	var errors []models.FieldError

	addMissing := func(field models.CanonicalField) {
		errors = append(errors, models.FieldError{
			Field:   string(field),
			Code:    models.ErrCodeMissingRequiredField,
			Message: fmt.Sprintf("missing required field: %s", fielddict.DisplayName(string(field))),
		})
	}
	addInvalid := func(field models.CanonicalField, msg string) {
		errors = append(errors, models.FieldError{
			Field:   string(field),
			Code:    models.ErrCodeInvalidFormat,
			Message: msg,
		})
	}

	if row.RecipientName == "" {
		addMissing(models.FieldRecipientName)
	}

	switch {
	case row.Amount == nil:
		addMissing(models.FieldAmount)
	case !row.Amount.IsPositive():
		addInvalid(models.FieldAmount, "amount must be greater than zero")
	case row.Amount.GreaterThan(maxAmount):
		addInvalid(models.FieldAmount, "amount exceeds the maximum the bank file format can carry")
	}

	switch {
	case row.BankCode == "":
		addMissing(models.FieldBankCode)
	case !bankCodeRe.MatchString(row.BankCode):
		addInvalid(models.FieldBankCode, "bank code must be 1-2 digits")
	}

	switch {
	case row.BranchCode == "":
		addMissing(models.FieldBranchCode)
	case !branchCodeRe.MatchString(row.BranchCode):
		addInvalid(models.FieldBranchCode, "branch code must be exactly 3 digits")
	}

	switch {
	case row.AccountNumber == "":
		addMissing(models.FieldAccountNumber)
	case !accountNumberRe.MatchString(row.AccountNumber):
		addInvalid(models.FieldAccountNumber, "account number must be 2-20 digits")
	}

	if row.IDNumber != "" && !idNumberRe.MatchString(row.IDNumber) {
		addInvalid(models.FieldIDNumber, "id number must contain digits only")
	}

	if len(errors) > 0 {
		return models.RowValidationResult{
			RowNumber: row.RowNumber,
			Errors:    errors,
		}
	}

	return models.RowValidationResult{
		RowNumber: row.RowNumber,
		Valid:     true,
		Fields: &models.TransferFields{
			RecipientName: row.RecipientName,
			IDNumber:      row.IDNumber,
			Amount:        *row.Amount,
			BankCode:      row.BankCode,
			BranchCode:    row.BranchCode,
			AccountNumber: row.AccountNumber,
		},
	}
}
