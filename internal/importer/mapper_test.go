package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hesed/masav-batch/internal/fielddict"
	"hesed/masav-batch/internal/models"
)

func TestDetectMapping(t *testing.T) {
	dict := fielddict.New()

	headers := []string{"שם מקבל", "תעודת זהות", "סכום", "מספר בנק", "מספר סניף", "מספר חשבון"}
	mapping := DetectMapping(headers, dict)

	expected := models.ColumnMapping{
		models.FieldRecipientName: 0,
		models.FieldIDNumber:      1,
		models.FieldAmount:        2,
		models.FieldBankCode:      3,
		models.FieldBranchCode:    4,
		models.FieldAccountNumber: 5,
	}
	assert.Equal(t, expected, mapping)
}

func TestDetectMappingEnglishHeaders(t *testing.T) {
	dict := fielddict.New()

	mapping := DetectMapping([]string{"Recipient", "Amount", "Bank", "Branch", "Account", "Notes"}, dict)

	assert.Equal(t, 0, mapping[models.FieldRecipientName])
	assert.Equal(t, 1, mapping[models.FieldAmount])
	assert.Equal(t, 2, mapping[models.FieldBankCode])
	assert.Equal(t, 3, mapping[models.FieldBranchCode])
	assert.Equal(t, 4, mapping[models.FieldAccountNumber])
	assert.NotContains(t, mapping, models.FieldIDNumber)
}

func TestDetectMappingLaterColumnWins(t *testing.T) {
	dict := fielddict.New()
	mapping := DetectMapping([]string{"amount", "amount"}, dict)
	assert.Equal(t, 1, mapping[models.FieldAmount])
}

func TestValidateMapping(t *testing.T) {
	full := models.ColumnMapping{
		models.FieldRecipientName: 0,
		models.FieldAmount:        1,
		models.FieldBankCode:      2,
		models.FieldBranchCode:    3,
		models.FieldAccountNumber: 4,
	}
	valid, missing := ValidateMapping(full)
	assert.True(t, valid)
	assert.Empty(t, missing)

	delete(full, models.FieldAmount)
	delete(full, models.FieldBankCode)
	valid, missing = ValidateMapping(full)
	assert.False(t, valid)
	assert.ElementsMatch(t, []models.CanonicalField{models.FieldAmount, models.FieldBankCode}, missing)
}
