package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	data := []byte("name,amount\n alice ,100\n,\nbob,200\n")

	sheet, err := Read(data, ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "amount"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2, "fully empty rows are dropped")
	assert.Equal(t, []string{"alice", "100"}, sheet.Rows[0])
	assert.Equal(t, []string{"bob", "200"}, sheet.Rows[1])
}

func TestReadCSVSemicolonDelimiter(t *testing.T) {
	sheet, err := Read([]byte("a;b\n1;2\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sheet.Headers)
	assert.Equal(t, [][]string{{"1", "2"}}, sheet.Rows)
}

func TestReadCSVRaggedRows(t *testing.T) {
	sheet, err := Read([]byte("a,b,c\n1,2\n3,4,5,6\n"), ',')
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, []string{"1", "2"}, sheet.Rows[0])
	assert.Equal(t, []string{"3", "4", "5", "6"}, sheet.Rows[1])
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := Read([]byte(""), ',')
	assert.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	sheet, err := Read(workbookBytes(t, [][]interface{}{
		{"שם", "סכום"},
		{"ישראל", 1500},
		{"", ""},
		{"רות", 250.5},
	}), ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"שם", "סכום"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "ישראל", sheet.Rows[0][0])
	assert.Equal(t, "1500", sheet.Rows[0][1])
	assert.Equal(t, "רות", sheet.Rows[1][0])
}

func TestReadXLSXCorrupt(t *testing.T) {
	// A ZIP header with garbage behind it must fail, not be read as CSV.
	_, err := Read([]byte("PK\x03\x04not a real workbook"), ',')
	assert.Error(t, err)
}

func TestCell(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 2))
	assert.Equal(t, "", Cell(row, -1))
}

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}
