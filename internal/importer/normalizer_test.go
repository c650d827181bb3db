package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesed/masav-batch/internal/models"
)

var testMapping = models.ColumnMapping{
	models.FieldRecipientName: 0,
	models.FieldIDNumber:      1,
	models.FieldAmount:        2,
	models.FieldBankCode:      3,
	models.FieldBranchCode:    4,
	models.FieldAccountNumber: 5,
}

func TestNormalizeRow(t *testing.T) {
	row := []string{" ישראל ישראלי ", "123456789", "1,500.00 ₪", "12", "345", "678901"}

	parsed := NormalizeRow(row, testMapping, 2)

	assert.Equal(t, 2, parsed.RowNumber)
	assert.Equal(t, "ישראל ישראלי", parsed.RecipientName)
	assert.Equal(t, "123456789", parsed.IDNumber)
	require.NotNil(t, parsed.Amount)
	assert.True(t, decimal.NewFromInt(1500).Equal(*parsed.Amount))
	assert.Equal(t, "12", parsed.BankCode)
	assert.Equal(t, "345", parsed.BranchCode)
	assert.Equal(t, "678901", parsed.AccountNumber)
	assert.False(t, parsed.IsEmpty())
}

func TestNormalizeRowShortRow(t *testing.T) {
	parsed := NormalizeRow([]string{"דוד"}, testMapping, 3)

	assert.Equal(t, "דוד", parsed.RecipientName)
	assert.Empty(t, parsed.BankCode)
	assert.Nil(t, parsed.Amount)
}

func TestNormalizeRowEmpty(t *testing.T) {
	parsed := NormalizeRow([]string{"", "", "", "", "", ""}, testMapping, 4)
	assert.True(t, parsed.IsEmpty())
}

func TestNumericCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		absent   bool
	}{
		{"Plain integer", "100", "100", false},
		{"Decimal", "99.90", "99.9", false},
		{"Thousands separator", "1,234.56", "1234.56", false},
		{"Currency symbol", "₪ 250", "250", false},
		{"NIS suffix", "250 ש\"ח", "250", false},
		{"Negative", "-5", "-5", false},
		{"Empty", "", "", true},
		{"Spaces", "   ", "", true},
		{"Pure text", "abc", "", true},
		{"Only symbols", "₪", "", true},
		{"Lone minus", "-", "", true},
		{"Lone dot", ".", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := numericCell(tc.input)
			if tc.absent {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tc.expected, result.String())
		})
	}
}
